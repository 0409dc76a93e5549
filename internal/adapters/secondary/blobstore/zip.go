package blobstore

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	output "dataset-hub-service/internal/core/ports/output"
)

// ZipArchiver packs entries into a temporary zip file on disk so the blob
// store gets a known size without holding the archive in memory.
type ZipArchiver struct {
	Dir string
}

var _ output.Archiver = (*ZipArchiver)(nil)

func NewZipArchiver(dir string) *ZipArchiver {
	return &ZipArchiver{Dir: dir}
}

func (a *ZipArchiver) Pack(entries []output.ArchiveEntry) (io.Reader, int64, func(), error) {
	f, err := os.CreateTemp(a.Dir, "dataset-*.zip")
	if err != nil {
		return nil, 0, func() {}, fmt.Errorf("create temp archive: %w", err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}

	if err := writeZip(f, entries); err != nil {
		cleanup()
		return nil, 0, func() {}, err
	}

	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		cleanup()
		return nil, 0, func() {}, fmt.Errorf("size temp archive: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, func() {}, fmt.Errorf("rewind temp archive: %w", err)
	}
	return f, size, cleanup, nil
}

func writeZip(w io.Writer, entries []output.ArchiveEntry) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(entries))
	now := time.Now()

	for _, e := range entries {
		name := uniqueName(e.Name, seen)
		dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("add %s to archive: %w", name, err)
		}
		if err := copyEntry(dst, e); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func copyEntry(dst io.Writer, e output.ArchiveEntry) error {
	src, err := e.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Name, err)
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write %s: %w", e.Name, err)
	}
	return nil
}

// uniqueName suffixes repeated names: a.txt, a_2.txt, a_3.txt.
func uniqueName(name string, seen map[string]int) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	if seen[candidate] > 0 {
		return uniqueName(name, seen)
	}
	seen[candidate]++
	return candidate
}
