package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// DiskStorage writes blobs as files in one directory. Production uses the
// OS filesystem; tests pass afero.NewMemMapFs().
type DiskStorage struct {
	fs  afero.Fs
	dir string
}

var _ BlobStore = (*DiskStorage)(nil)

// NewDiskStorage creates dir on fs when missing.
func NewDiskStorage(fsys afero.Fs, dir string) (*DiskStorage, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStorage{fs: fsys, dir: dir}, nil
}

func (d *DiskStorage) path(key string) string { return filepath.Join(d.dir, key) }

// Put stores r under key. contentType is ignored: Open sniffs the bytes.
func (d *DiskStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if err := afero.WriteReader(d.fs, d.path(key), r); err != nil {
		_ = d.fs.Remove(d.path(key))
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (d *DiskStorage) Open(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	if err := CheckKey(key); err != nil {
		return nil, Info{}, ErrNotFound
	}
	f, err := d.fs.Open(d.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, ErrNotFound
		}
		return nil, Info{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Info{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, Info{}, ErrNotFound
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, Info{}, fmt.Errorf("detect %s: %w", key, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, Info{}, err
	}
	return f, Info{Size: st.Size(), ContentType: mt.String()}, nil
}

func (d *DiskStorage) Delete(ctx context.Context, key string) error {
	if err := CheckKey(key); err != nil {
		return ErrNotFound
	}
	err := d.fs.Remove(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
