// Package storage provides a domain-agnostic interface for S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// StorageService defines the object storage operations the attachment relay needs.
type StorageService interface {
	// UploadFile uploads reader to bucket under folder and returns the object key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// PublicURL returns the durable URL under which an object is served.
	PublicURL(bucket, fileKey string) string

	// KeyFromURL reverses PublicURL. ok is false for URLs on another host or
	// outside the bucket.
	KeyFromURL(bucket, rawURL string) (key string, ok bool)
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOPublicBaseURL() string
	IsMinIOEnabled() bool
}
