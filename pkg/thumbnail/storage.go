package thumbnail

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// ErrImageNotFound is returned when the source image does not exist.
var ErrImageNotFound = errors.New("image not found")

// Storage abstracts where source images live (local directory, S3 bucket).
type Storage interface {
	// Open the image at the given name. Returns ErrImageNotFound when absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LocalStorage serves images from a directory on disk.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a local directory storage
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Open opens an image file. Only the base name of the request is used, so the
// URL cannot climb out of the root directory.
func (s *LocalStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path := filepath.Join(s.root, filepath.Base(name))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return f, nil
}
