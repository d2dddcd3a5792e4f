package tokenstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/florianilch/postbot/internal/credentials"
)

// FileStore provides atomic file-based token set storage with secure permissions.
// Writes use temp file + rename for crash safety.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements credentials.Persister
var _ credentials.Persister = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent directories
// with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Load returns the stored token set. Returns credentials.ErrNoTokenSet if the
// file doesn't exist or is empty, and an error if it has insecure permissions.
func (f *FileStore) Load(ctx context.Context) (credentials.TokenSet, error) {
	if err := ctx.Err(); err != nil {
		return credentials.TokenSet{}, err
	}

	// Check file permissions before reading
	info, err := os.Stat(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	if err != nil {
		return credentials.TokenSet{}, err
	}
	if info.Mode().Perm() != 0600 {
		return credentials.TokenSet{}, fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.filePath, info.Mode().Perm())
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return credentials.TokenSet{}, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	return decode(data)
}

// Save atomically writes the token set using temp file + rename for crash safety.
// Sets file permissions to 0600 (owner read/write only).
func (f *FileStore) Save(ctx context.Context, ts credentials.TokenSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(ts)
	if err != nil {
		return err
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(append(data, '\n')); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final location
	if err := os.Rename(tempName, f.filePath); err != nil {
		return err
	}

	// Set secure file permissions (0600 = rw-------)
	return os.Chmod(f.filePath, 0600)
}

// Delete removes the token file. A missing file is not an error.
func (f *FileStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(f.filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
