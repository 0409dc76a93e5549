package selection

import (
	"path"
	"path/filepath"
	"strings"

	"dataset-hub-service/internal/core/domain"
)

// File is one picked file. RelativePath is only set for folder picks and
// always uses forward slashes ("photos/2024/a.png").
type File struct {
	Name         string
	Path         string
	RelativePath string
	Size         int64
}

// Ext returns the lower-cased extension including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Folder returns the top-level folder of RelativePath, or "" for flat picks.
func (f File) Folder() string {
	rel := strings.TrimLeft(path.Clean(filepath.ToSlash(f.RelativePath)), "/")
	if f.RelativePath == "" || rel == "." {
		return ""
	}
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

// NormalizeFlatSelection accepts the whole list or none of it. When allowed
// is non-empty every extension must be in it (case-insensitive).
func NormalizeFlatSelection(files []File, allowed []string) ([]File, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFilesSelected
	}
	if len(allowed) > 0 {
		set := make(map[string]struct{}, len(allowed))
		for _, ext := range allowed {
			set[strings.ToLower(ext)] = struct{}{}
		}
		var rejected []string
		for _, f := range files {
			if _, ok := set[f.Ext()]; !ok {
				rejected = append(rejected, f.Name)
			}
		}
		if len(rejected) > 0 {
			return nil, &domain.InvalidFileTypeError{Names: rejected, Expected: allowed}
		}
	}
	out := make([]File, len(files))
	copy(out, files)
	return out, nil
}

// FolderGroups maps folder name to files, remembering first-seen order.
type FolderGroups struct {
	order []string
	files map[string][]File
}

func (g *FolderGroups) Names() []string {
	return append([]string(nil), g.order...)
}

func (g *FolderGroups) Files(folder string) []File {
	return g.files[folder]
}

// Counts is the folder -> file count view shown before submission.
func (g *FolderGroups) Counts() map[string]int {
	out := make(map[string]int, len(g.files))
	for k, v := range g.files {
		out[k] = len(v)
	}
	return out
}

func (g *FolderGroups) Total() int {
	n := 0
	for _, v := range g.files {
		n += len(v)
	}
	return n
}

// GroupByTopLevelFolder groups files by the first segment of their
// relative path. Any file without one fails the whole call.
func GroupByTopLevelFolder(files []File) (*FolderGroups, error) {
	g := &FolderGroups{files: make(map[string][]File)}
	for _, f := range files {
		folder := f.Folder()
		if folder == "" {
			return nil, domain.ErrNotAFolderSelection
		}
		if _, seen := g.files[folder]; !seen {
			g.order = append(g.order, folder)
		}
		g.files[folder] = append(g.files[folder], f)
	}
	return g, nil
}

// AccumulateFolderSelection appends incoming to existing without
// touching either input.
func AccumulateFolderSelection(existing, incoming []File) []File {
	out := make([]File, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	return append(out, incoming...)
}
