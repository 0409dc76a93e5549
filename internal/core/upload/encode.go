package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
)

// Opener opens a picked file for reading.
type Opener func(path string) (io.ReadCloser, error)

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// WithOpener replaces how file parts are read; used by tests and by
// callers holding files in memory.
func (r *Request) WithOpener(o Opener) *Request {
	r.opener = o
	return r
}

// Encode streams the multipart body. Files are opened one at a time while
// the body is read; an open or copy failure surfaces as a read error.
func (r *Request) Encode() (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	open := r.opener
	if open == nil {
		open = openFile
	}

	go func() {
		pw.CloseWithError(r.write(mw, open))
	}()
	return pr, mw.FormDataContentType()
}

func (r *Request) write(mw *multipart.Writer, open Opener) error {
	for _, p := range r.Parts {
		if err := writePart(mw, p, open); err != nil {
			return err
		}
	}
	for _, f := range r.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

func writePart(mw *multipart.Writer, p Part, open Opener) error {
	src, err := open(p.File.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.FileName, err)
	}
	defer src.Close()

	dst, err := mw.CreateFormFile(p.Field, p.FileName)
	if err != nil {
		return fmt.Errorf("create part %s: %w", p.FileName, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", p.FileName, err)
	}
	return nil
}
