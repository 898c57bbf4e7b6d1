package upload

import (
	"bytes"
	"io"
)

// File is the single uploaded file retained from a multipart body.
type File struct {
	FieldName    string
	OriginalName string
	MimeType     string
	Content      []byte
}

// Size returns the content length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Content))
}

// Reader returns a fresh reader over the content.
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.Content)
}

// Envelope is the normalised result of one multipart body.
type Envelope struct {
	Fields map[string]string
	File   *File
}

// Field returns the value recorded for name, or "".
func (e *Envelope) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}
