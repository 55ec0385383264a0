package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOService implements StorageService using MinIO.
type MinIOService struct {
	client        *minio.Client
	publicBaseURL string
}

var _ StorageService = (*MinIOService)(nil)

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:        client,
		publicBaseURL: strings.TrimRight(cfg.GetMinIOPublicBaseURL(), "/"),
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// DeleteObject removes an object from storage.
func (s *MinIOService) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileKey, err)
	}
	return nil
}

// UploadFile uploads a file directly to storage from an io.Reader and returns the file key.
// A short random suffix keeps repeated uploads of the same file name apart.
func (s *MinIOService) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := ObjectKey(folder, fileName)

	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// PublicURL joins the public base, bucket and key.
func (s *MinIOService) PublicURL(bucket, fileKey string) string {
	return PublicURL(s.publicBaseURL, bucket, fileKey)
}

// KeyFromURL extracts the object key from a URL produced by PublicURL.
func (s *MinIOService) KeyFromURL(bucket, rawURL string) (string, bool) {
	return KeyFromURL(s.publicBaseURL, bucket, rawURL)
}

// ObjectKey builds "<folder>/<base>_<uuid8><ext>".
func ObjectKey(folder, fileName string) string {
	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(path.Base(fileName), ext)
	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "file"
	}
	uniqueFileName := fmt.Sprintf("%s_%s%s", baseName, uuid.New().String()[:8], ext)
	return path.Join(folder, uniqueFileName)
}

// PublicURL renders the path-style URL of an object.
func PublicURL(baseURL, bucket, fileKey string) string {
	segments := strings.Split(fileKey, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// KeyFromURL returns the object key of a URL rendered by PublicURL with the
// same base and bucket. Other hosts, schemes and paths do not resolve.
func KeyFromURL(baseURL, bucket, rawURL string) (string, bool) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		return "", false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(parsed.Scheme, base.Scheme) || !strings.EqualFold(parsed.Host, base.Host) {
		return "", false
	}
	prefix := base.Path + "/" + bucket + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return "", false
	}
	key := parsed.Path[len(prefix):]
	if key == "" || path.Clean("/"+key) != "/"+key {
		return "", false
	}
	return key, true
}
