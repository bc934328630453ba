package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"invoice-api/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	root    string
	baseURL string
}

// New creates a local object store rooted at baseDir/bucket. Public URLs are
// built from baseURL, which the router serves from Root().
func New(baseDir, bucket, baseURL string) (*Store, error) {
	root := filepath.Join(baseDir, bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", root, err)
	}
	return &Store{root: root, baseURL: baseURL}, nil
}

// Root returns the directory holding stored objects.
func (s *Store) Root() string {
	return s.root
}

// Put writes the reader to disk at key, refusing to replace an existing file.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", object.ErrObjectExists, key)
		}
		return fmt.Errorf("open file: %w", err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: wrote %d of %d bytes", written, size)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// Remove deletes the object at key. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// PublicURL returns the URL the router serves key from.
func (s *Store) PublicURL(key string) string {
	return object.JoinURL(s.baseURL, key)
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
