package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Ensure FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)

// FileBackend stores the blob in a single file, written atomically.
type FileBackend struct {
	log  logrus.FieldLogger
	path string
}

// NewFileBackend creates a file backend at the given path. Parent
// directories are created on first save.
func NewFileBackend(log logrus.FieldLogger, path string) *FileBackend {
	return &FileBackend{
		log:  log.WithField("component", "file_backend"),
		path: path,
	}
}

// Load returns the file contents, or ErrNotFound.
func (b *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("reading cache file %s: %w", b.path, err)
	}

	return data, nil
}

// Save writes the blob via a temp file and rename so readers never observe
// a partial write.
func (b *FileBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("writing cache file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("closing cache file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("setting cache file mode: %w", err)
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replacing cache file %s: %w", b.path, err)
	}

	return nil
}

// Clear removes the cache file.
func (b *FileBackend) Clear(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file %s: %w", b.path, err)
	}

	return nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error {
	return nil
}
