// Package storage holds the content store: stored objects are keyed by the
// record checksum with no extension.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/we-kode/mml.media/config"
)

// Store is the content store contract. Objects are immutable once written.
type Store interface {
	// Put moves the staged file at sourcePath into the store under checksum.
	Put(ctx context.Context, checksum, sourcePath string) error
	// Open opens the stored object for reading. The reader supports seeking
	// so playback can serve range requests.
	Open(ctx context.Context, checksum string) (io.ReadSeekCloser, int64, error)
	// Delete removes the stored object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, checksum string) error
	// Exists reports whether the object is present.
	Exists(ctx context.Context, checksum string) (bool, error)
	// Location names where objects live (directory or bucket), recorded on
	// each catalog row.
	Location() string
}

// NewStore builds the configured content store backend.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "minio":
		return newMinioStore(cfg)
	case "fs", "":
		return NewFileStore(cfg.RecordsDir)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// fileStore keeps objects as plain files named by checksum below one base
// directory.
type fileStore struct {
	baseDir string
}

// NewFileStore creates the base directory and returns a filesystem store.
func NewFileStore(baseDir string) (Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create records directory %s: %w", baseDir, err)
	}
	return &fileStore{baseDir: baseDir}, nil
}

func (s *fileStore) objectPath(checksum string) string {
	return filepath.Join(s.baseDir, checksum)
}

func (s *fileStore) Put(ctx context.Context, checksum, sourcePath string) error {
	target := s.objectPath(checksum)
	if err := os.Rename(sourcePath, target); err == nil {
		return nil
	}
	// Rename fails across filesystems, fall back to a copy.
	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open staged file %s: %w", sourcePath, err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to store %s: %w", checksum, err)
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return os.Remove(sourcePath)
}

func (s *fileStore) Open(ctx context.Context, checksum string) (io.ReadSeekCloser, int64, error) {
	file, err := os.Open(s.objectPath(checksum))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open stored object %s: %w", checksum, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, info.Size(), nil
}

func (s *fileStore) Delete(ctx context.Context, checksum string) error {
	err := os.Remove(s.objectPath(checksum))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored object %s: %w", checksum, err)
	}
	return nil
}

func (s *fileStore) Exists(ctx context.Context, checksum string) (bool, error) {
	_, err := os.Stat(s.objectPath(checksum))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *fileStore) Location() string {
	return s.baseDir
}
