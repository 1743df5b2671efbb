package entity

import (
	"bytes"
	"io"
	"os"
)

// SourceDocument is an immutable input: a named byte stream. It lives only for the
// duration of one batch. Open may be called more than once (hashing and extraction
// each read the content).
type SourceDocument struct {
	Filename string
	open     func() (io.ReadCloser, error)
}

// NewFileDocument wraps a file on disk.
func NewFileDocument(path string) SourceDocument {
	return SourceDocument{
		Filename: path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// NewBytesDocument wraps an in-memory upload.
func NewBytesDocument(filename string, data []byte) SourceDocument {
	return SourceDocument{
		Filename: filename,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the document bytes.
func (d SourceDocument) Open() (io.ReadCloser, error) {
	if d.open == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return d.open()
}

// Bytes reads the whole document into memory. Extraction adapters that must ship the
// content to an external service use this; hashing streams via Open instead.
func (d SourceDocument) Bytes() ([]byte, error) {
	r, err := d.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
