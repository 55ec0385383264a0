package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"helpdesk_backend/platform/apperr"
	"helpdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	maxBytes    int64
	err         error
	gotFolder   string
	gotType     string
	storedBytes int
}

func (f *fakeStore) Store(_ context.Context, data []byte, contentType, folder string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.gotFolder, f.gotType, f.storedBytes = folder, contentType, len(data)
	return "https://files.example.com/attachments/" + folder + "/image.png", nil
}

func (f *fakeStore) UserFolder(userID uuid.UUID) string {
	return "chat-attachments/user-" + userID.String()
}
func (f *fakeStore) MaxBytes() int64 { return f.maxBytes }

func newUploadEngine(store Store, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Next()
	}, New(store).Upload)
	return r
}

func multipartBody(t *testing.T, field, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="shot.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("note", "x"))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doUpload(t *testing.T, engine *gin.Engine, field, contentType string, data []byte) *httptest.ResponseRecorder {
	body, ct := multipartBody(t, field, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestUploadStoresImage(t *testing.T) {
	store := &fakeStore{maxBytes: 1024}
	userID := uuid.New()

	rec := doUpload(t, newUploadEngine(store, userID), formFieldImage, "image/png", []byte("png"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.URL, "user-"+userID.String())
	assert.Equal(t, "image/png", store.gotType)
	assert.Equal(t, 3, store.storedBytes)
}

func TestUploadRejections(t *testing.T) {
	cases := []struct {
		name        string
		field       string
		contentType string
		data        []byte
		wantMsg     string
	}{
		{"missing field", "", "", nil, msgMissingImage},
		{"not an image", formFieldImage, "application/pdf", []byte("%PDF"), msgNotAnImage},
		{"too large", formFieldImage, "image/png", bytes.Repeat([]byte("a"), 2048), msgTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{maxBytes: 1024}
			rec := doUpload(t, newUploadEngine(store, uuid.New()), tc.field, tc.contentType, tc.data)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp httpkit.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantMsg, resp.Error)
			assert.Zero(t, store.storedBytes)
		})
	}
}

func TestUploadStorageFailureIsBadGateway(t *testing.T) {
	store := &fakeStore{maxBytes: 1024, err: apperr.New(apperr.KindStorage, "could not store the image")}

	rec := doUpload(t, newUploadEngine(store, uuid.New()), formFieldImage, "image/png", []byte("png"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
