package session

import (
	"mime"
	"os"
	"path/filepath"
)

type fileSource struct {
	*os.File
	size int64
	name string
}

func (f *fileSource) Name() string { return f.name }
func (f *fileSource) Size() int64  { return f.size }

// FileSource wraps an open file as a Source, capturing its size and base
// name.
func FileSource(f *os.File) (Source, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &fileSource{File: f, size: info.Size(), name: filepath.Base(f.Name())}, nil
}

func contentTypeFor(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
