// Package file stores cart values as files in a directory, one file per key.
package file

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/zm-storefront/internal/domain/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Storage persists values under Dir. Writes go to a temporary file that is
// renamed into place, so a crash never leaves a half-written value.
type Storage struct {
	dir string
}

// New creates the directory if needed and returns a Storage rooted at it.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create storage dir %s", dir)
	}
	return &Storage{dir: dir}, nil
}

// Get reads the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cart.ErrNoValue
		}
		return nil, errors.Wrapf(err, "read %q", key)
	}
	return data, nil
}

// Set atomically replaces the value stored under key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %q", key)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrapf(err, "replace %q", key)
	}
	return nil
}

// path maps a key to a file name; keys are escaped so they cannot leave dir.
func (s *Storage) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}
