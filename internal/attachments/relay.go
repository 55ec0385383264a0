// Package attachments relays chat images between clients, object storage and
// the automation endpoint.
package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"helpdesk_backend/internal/adapters/storage"
	"helpdesk_backend/platform/apperr"
	"helpdesk_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultContentType  = "image/png"
	folderPrefix        = "chat-attachments"

	msgStoreFailed  = "could not store the image"
	msgFetchFailed  = "could not retrieve the image"
	msgFetchTimeout = "retrieving the image took too long"
	msgNotAnImage   = "only image files are allowed"
	msgTooLarge     = "image exceeds the maximum allowed size"
)

var (
	// ErrFetchTimeout marks a Fetch that ran out of its time budget.
	ErrFetchTimeout = errors.New("attachment fetch timed out")
	// ErrFetch marks any other Fetch failure.
	ErrFetch = errors.New("attachment fetch failed")
)

// Relay stores uploaded images and fetches them back for forwarding.
type Relay struct {
	storage      storage.StorageService
	bucket       string
	maxBytes     int64
	fetchTimeout time.Duration
	httpClient   *http.Client
	log          *logger.Logger
}

// Options configures a Relay. Zero values fall back to defaults.
type Options struct {
	Bucket       string
	MaxBytes     int64
	FetchTimeout time.Duration
	HTTPClient   *http.Client
}

// NewRelay creates a relay on top of the given storage service.
func NewRelay(store storage.StorageService, opts Options, log *logger.Logger) *Relay {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Relay{
		storage:      store,
		bucket:       opts.Bucket,
		maxBytes:     opts.MaxBytes,
		fetchTimeout: opts.FetchTimeout,
		httpClient:   opts.HTTPClient,
		log:          log,
	}
}

// MaxBytes reports the upload cap.
func (r *Relay) MaxBytes() int64 { return r.maxBytes }

// UserFolder is the storage folder for a user's chat images.
func (r *Relay) UserFolder(userID uuid.UUID) string {
	return fmt.Sprintf("%s/user-%s", folderPrefix, userID)
}

// Store uploads an image and returns its durable URL.
func (r *Relay) Store(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	if storage.ValidateImageContentType(contentType) != nil {
		return "", apperr.Validation(msgNotAnImage).WithOp("attachments.Store")
	}
	if err := storage.ValidateFileSize(int64(len(data)), r.maxBytes); err != nil {
		return "", apperr.Wrap(apperr.KindValidation, msgTooLarge, err).WithOp("attachments.Store")
	}

	normalized := storage.NormalizeContentType(contentType)
	fileName := "image" + storage.ExtensionFor(normalized)
	key, err := r.storage.UploadFile(ctx, r.bucket, folder, fileName, normalized, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.KindStorage, msgStoreFailed, err).WithOp("attachments.Store")
	}

	r.log.WithContext(ctx).Info("attachment stored", "bucket", r.bucket, "key", key, "bytes", len(data))
	return r.storage.PublicURL(r.bucket, key), nil
}

// Fetch downloads an image for forwarding. Only URLs under the attachment
// bucket's public base are fetched. A missing Content-Type header is treated
// as image/png; any other non-image type is refused.
func (r *Relay) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if _, ok := r.storage.KeyFromURL(r.bucket, rawURL); !ok {
		return nil, "", fetchError(fmt.Errorf("%w: url outside attachment storage", ErrFetch))
	}

	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fetchError(fmt.Errorf("%w: build request: %v", ErrFetch, err))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", r.classifyFetchErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fetchError(fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	contentType = storage.NormalizeContentType(contentType)
	if !storage.IsImageContentType(contentType) {
		return nil, "", fetchError(fmt.Errorf("%w: content type %q", ErrFetch, contentType))
	}

	data, err := storage.ReadAllWithLimit(resp.Body, r.maxBytes)
	if err != nil {
		return nil, "", r.classifyFetchErr(ctx, err)
	}
	return data, contentType, nil
}

// Delete removes the object behind a URL produced by Store. URLs that point
// elsewhere are ignored.
func (r *Relay) Delete(ctx context.Context, rawURL string) error {
	key, ok := r.storage.KeyFromURL(r.bucket, rawURL)
	if !ok {
		return nil
	}
	if err := r.storage.DeleteObject(ctx, r.bucket, key); err != nil {
		return apperr.Wrap(apperr.KindStorage, msgStoreFailed, err).WithOp("attachments.Delete")
	}
	return nil
}

func (r *Relay) classifyFetchErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindStorage, msgFetchTimeout, fmt.Errorf("%w: %v", ErrFetchTimeout, err)).
			WithOp("attachments.Fetch")
	}
	return fetchError(fmt.Errorf("%w: %v", ErrFetch, err))
}

func fetchError(err error) error {
	return apperr.Wrap(apperr.KindStorage, msgFetchFailed, err).WithOp("attachments.Fetch")
}
