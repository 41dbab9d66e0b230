package storage

import (
	"context"
	"io"
)

// ObjectStorage defines minimal object storage operations required by the
// judge's corpus and source fetch flows. It is intentionally small so we can
// swap MinIO/S3/local-disk implementations without touching business logic.
type ObjectStorage interface {
	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	// A missing object is reported via IsNotFound on the returned error.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

	// PutObject stores an object.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error

	// StatObject returns size and ETag for an object.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)
}

// ObjectStat contains object metadata used for validation.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}

// notFoundError marks errors for objects that do not exist.
type notFoundError struct {
	key string
}

func (e *notFoundError) Error() string {
	return "object not found: " + e.key
}

// NewNotFoundError builds a not-found error for objectKey.
func NewNotFoundError(objectKey string) error {
	return &notFoundError{key: objectKey}
}

// IsNotFound reports whether err denotes a missing object.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*notFoundError)
	return ok
}
