// Package upload orchestrates client-side document uploads. It validates files
// against a shared policy, uploads them one at a time through a Transport, and
// polls the document service until each upload reaches a terminal processing state.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// File is a candidate upload. Open is called once, when the upload request is issued.
type File struct {
	Name string
	Size int64
	Type string
	Open func() (io.ReadCloser, error)
}

// FromBytes creates a File backed by an in-memory buffer.
func FromBytes(name, contentType string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Type: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath creates a File for a file on disk. The MIME type is resolved from the
// extension, falling back to content sniffing.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	contentType, err := detectType(path)
	if err != nil {
		return File{}, err
	}

	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Type: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func detectType(path string) (string, error) {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if media, _, err := mime.ParseMediaType(t); err == nil {
			return media, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	media, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return media, nil
}
