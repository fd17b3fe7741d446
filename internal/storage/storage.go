package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey rejects keys that could escape the store's namespace.
	ErrInvalidKey = errors.New("invalid object key")
)

// Info describes a stored object.
type Info struct {
	Size        int64
	ContentType string
}

// BlobStore holds uploaded image bytes under flat keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, Info, error)
	Delete(ctx context.Context, key string) error
}

// CheckKey accepts only a single path element.
func CheckKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || path.Base(key) != key {
		return ErrInvalidKey
	}
	return nil
}
