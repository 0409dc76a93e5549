package ports

import (
	"context"
	"io"
)

// BlobStore keeps dataset archives. Keys look like
// "<username>/<dataset_name>/<group>.zip".
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// ArchiveEntry is one file to be packed. Name is the path inside the
// archive.
type ArchiveEntry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Archiver packs entries into a single seekable archive. The returned
// cleanup must always be called.
type Archiver interface {
	Pack(entries []ArchiveEntry) (archive io.Reader, size int64, cleanup func(), err error)
}
