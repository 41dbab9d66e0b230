package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds the configuration for the MinIO client.
type MinIOConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"accessKeyId"`
	SecretAccessKey string        `yaml:"secretAccessKey"`
	UseSSL          bool          `yaml:"useSSL"`
	Region          string        `yaml:"region"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
}

// DefaultMinIOConfig returns a MinIOConfig with sensible defaults.
func DefaultMinIOConfig() *MinIOConfig {
	return &MinIOConfig{
		UseSSL:      false,
		DialTimeout: 5 * time.Second,
	}
}

// MinIOStorage implements ObjectStorage using a MinIO/S3 backend.
type MinIOStorage struct {
	client *minio.Client
}

// NewMinIOStorage creates a MinIO-backed object storage.
func NewMinIOStorage(config *MinIOConfig) (*MinIOStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOStorage{client: client}, nil
}

// GetObject opens a reader for the object. Object existence is checked
// eagerly so a missing key surfaces here rather than on first read.
func (s *MinIOStorage) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object failed: %w", err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isMinioNotFound(err) {
			return nil, NewNotFoundError(objectKey)
		}
		return nil, fmt.Errorf("minio stat object failed: %w", err)
	}

	return obj, nil
}

// PutObject stores an object.
func (s *MinIOStorage) PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, objectKey, reader, sizeBytes, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put object failed: %w", err)
	}
	return nil
}

// StatObject returns metadata for an object.
func (s *MinIOStorage) StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error) {
	info, err := s.client.StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return ObjectStat{}, NewNotFoundError(objectKey)
		}
		return ObjectStat{}, fmt.Errorf("minio stat object failed: %w", err)
	}
	return ObjectStat{
		SizeBytes:   info.Size,
		ETag:        info.ETag,
		ContentType: info.ContentType,
	}, nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == 404
}
