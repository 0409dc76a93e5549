package selection

import (
	"sync"

	"dataset-hub-service/internal/core/domain"
)

// Mode is how files were picked for one group.
type Mode string

const (
	ModeFiles   Mode = "files"
	ModeFolders Mode = "folders"
)

type groupState struct {
	mode  Mode
	files []File
}

// Selection holds the pending files of one upload form, per group.
// Each group has exactly one mode; changing it discards that group's files.
type Selection struct {
	mu     sync.Mutex
	groups map[domain.FileGroup]*groupState
}

func New() *Selection {
	return &Selection{groups: map[domain.FileGroup]*groupState{
		domain.GroupRaw:        {mode: ModeFiles},
		domain.GroupVectorized: {mode: ModeFiles},
	}}
}

func (s *Selection) group(g domain.FileGroup) *groupState {
	st, ok := s.groups[g]
	if !ok {
		st = &groupState{mode: ModeFiles}
		s.groups[g] = st
	}
	return st
}

// SelectFiles replaces the group's flat selection. allowed restricts
// extensions (pass nil for vectorized data). On error the previous
// selection is left as it was.
func (s *Selection) SelectFiles(g domain.FileGroup, files []File, allowed []string) error {
	normalized, err := NormalizeFlatSelection(files, allowed)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.group(g)
	st.mode = ModeFiles
	st.files = normalized
	return nil
}

// AddFolder appends one picked folder to the group's folder selection.
func (s *Selection) AddFolder(g domain.FileGroup, files []File) error {
	if len(files) == 0 {
		return domain.ErrNoFilesSelected
	}
	if _, err := GroupByTopLevelFolder(files); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.group(g)
	if st.mode != ModeFolders {
		st.mode = ModeFolders
		st.files = nil
	}
	st.files = AccumulateFolderSelection(st.files, files)
	return nil
}

// SwitchMode changes the group's mode and clears it when the mode differs.
func (s *Selection) SwitchMode(g domain.FileGroup, m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.group(g)
	if st.mode == m {
		return
	}
	st.mode = m
	st.files = nil
}

// Clear drops the group's files but keeps its mode.
func (s *Selection) Clear(g domain.FileGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.group(g).files = nil
}

func (s *Selection) Files(g domain.FileGroup) []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]File(nil), s.group(g).files...)
}

func (s *Selection) Mode(g domain.FileGroup) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group(g).mode
}

// Summary is the review view of a folder selection.
type Summary struct {
	Folders []string
	Counts  map[string]int
	Total   int
}

// Summary reports per-folder counts and the running total. Flat
// selections report only the total.
func (s *Selection) Summary(g domain.FileGroup) Summary {
	s.mu.Lock()
	st := s.group(g)
	mode, files := st.mode, append([]File(nil), st.files...)
	s.mu.Unlock()

	if mode != ModeFolders {
		return Summary{Counts: map[string]int{}, Total: len(files)}
	}
	groups, err := GroupByTopLevelFolder(files)
	if err != nil {
		return Summary{Counts: map[string]int{}, Total: len(files)}
	}
	return Summary{Folders: groups.Names(), Counts: groups.Counts(), Total: groups.Total()}
}

// UploadMode returns the single mode used across the given groups.
func (s *Selection) UploadMode(groups ...domain.FileGroup) (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var mode Mode
	for i, g := range groups {
		m := s.group(g).mode
		if i == 0 {
			mode = m
			continue
		}
		if m != mode {
			return "", domain.ErrMixedSelectionModes
		}
	}
	if mode == "" {
		mode = ModeFiles
	}
	return mode, nil
}
