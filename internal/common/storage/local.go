package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements ObjectStorage over a local directory tree.
// Buckets map to top-level directories, object keys to relative paths.
// Used in development and tests where no MinIO instance is available.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a local-disk object storage rooted at root.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

// GetObject opens a reader for the object.
func (s *LocalStorage) GetObject(_ context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	path, err := s.resolve(bucket, objectKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError(objectKey)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// PutObject stores an object, creating parent directories as needed.
func (s *LocalStorage) PutObject(_ context.Context, bucket, objectKey string, reader io.Reader, _ int64, _ string) error {
	path, err := s.resolve(bucket, objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// StatObject returns size metadata for an object. ETag is left empty.
func (s *LocalStorage) StatObject(_ context.Context, bucket, objectKey string) (ObjectStat, error) {
	path, err := s.resolve(bucket, objectKey)
	if err != nil {
		return ObjectStat{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectStat{}, NewNotFoundError(objectKey)
		}
		return ObjectStat{}, fmt.Errorf("failed to stat object: %w", err)
	}
	return ObjectStat{SizeBytes: info.Size()}, nil
}

// resolve joins bucket and key under root, rejecting path traversal.
func (s *LocalStorage) resolve(bucket, objectKey string) (string, error) {
	if bucket == "" || objectKey == "" {
		return "", fmt.Errorf("bucket and object key must be non-empty")
	}
	path := filepath.Join(s.root, bucket, filepath.FromSlash(objectKey))
	cleaned := filepath.Clean(path)
	if cleaned != s.root && !strings.HasPrefix(cleaned, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("object key escapes storage root: %s", objectKey)
	}
	return cleaned, nil
}
