package handler

import (
	"context"
	"errors"
	"net/http"

	"helpdesk_backend/internal/adapters/storage"
	"helpdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	formFieldImage = "image"

	msgMissingImage = "no image was provided"
	msgNotAnImage   = "only image files are allowed"
	msgTooLarge     = "image exceeds the maximum allowed size"
	msgUploaded     = "image uploaded"
)

// Store is the part of the relay the upload endpoint needs.
type Store interface {
	Store(ctx context.Context, data []byte, contentType, folder string) (string, error)
	UserFolder(userID uuid.UUID) string
	MaxBytes() int64
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Handler handles attachment uploads.
type Handler struct {
	store Store
}

// New creates a new attachments handler.
func New(store Store) *Handler {
	return &Handler{store: store}
}

// Upload stores a single image from the multipart field "image".
// POST /api/v1/upload
func (h *Handler) Upload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	maxBytes := h.store.MaxBytes()
	// Room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+64<<10)

	fileHeader, err := c.FormFile(formFieldImage)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.Error(c, http.StatusBadRequest, msgTooLarge, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgMissingImage, nil)
		return
	}
	if fileHeader.Size > maxBytes {
		httpkit.Error(c, http.StatusBadRequest, msgTooLarge, nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.IsImageContentType(contentType) {
		httpkit.Error(c, http.StatusBadRequest, msgNotAnImage, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingImage, nil)
		return
	}
	defer file.Close()

	data, err := storage.ReadAllWithLimit(file, maxBytes)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgTooLarge, nil)
		return
	}

	url, err := h.store.Store(c.Request.Context(), data, contentType, h.store.UserFolder(identity.UserID()))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, UploadResponse{Success: true, URL: url, Message: msgUploaded})
}
