package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes receipt images under a base directory. It exists for
// development and tests where no bucket is configured; paths returned are
// relative and mirror the S3 key layout.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage: base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (l *LocalStore) SaveReceiptImage(_ context.Context, userID, importID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	key, err := ObjectKey(userID, importID)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("local storage: mkdir for %s: %w", key, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("local storage: write %s: %w", key, err)
	}
	return key, nil
}

// ImageURL returns a file:// URL; development only.
func (l *LocalStore) ImageURL(_ context.Context, path string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(l.baseDir, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("local storage: resolve %s: %w", path, err)
	}
	return "file://" + strings.ReplaceAll(abs, string(os.PathSeparator), "/"), nil
}
