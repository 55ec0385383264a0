package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"helpdesk_backend/platform/apperr"
	"helpdesk_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	url          string
	textTimeout  time.Duration
	imageTimeout time.Duration
}

func (c testConfig) GetAutomationWebhookURL() string       { return c.url }
func (c testConfig) GetGatewayTextTimeout() time.Duration  { return c.textTimeout }
func (c testConfig) GetGatewayImageTimeout() time.Duration { return c.imageTimeout }

func newTestClient(url string, text, image time.Duration) *Client {
	return NewClient(testConfig{url: url, textTimeout: text, imageTimeout: image}, logger.Discard())
}

func TestInvokeTextSendsJSON(t *testing.T) {
	var got textPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"respuesta":"hello"}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL, time.Second, time.Second).Invoke(context.Background(), TextRequest{
		Message: "¿Cómo cambio mi contraseña?", UserID: "u1", ChatID: "c1", DisplayName: "Ana",
	})

	require.NoError(t, err)
	assert.Equal(t, PlainReply{Text: "hello"}, reply)
	assert.Equal(t, textPayload{Message: "¿Cómo cambio mi contraseña?", UserID: "u1", ChatID: "c1", ClienteNombre: "Ana"}, got)
}

func TestInvokeImageSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "u1", r.FormValue("userId"))
		assert.Equal(t, "c1", r.FormValue("chatId"))
		assert.Equal(t, "Ana", r.FormValue("clienteNombre"))
		assert.Equal(t, "revisa este error", r.FormValue("message"))

		file, header, err := r.FormFile("image")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "image.jpeg", header.Filename)
			assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
			assert.Equal(t, []byte("jpeg-bytes"), data)
		}

		_, _ = w.Write([]byte(`{"respuesta":"Necesito escalar esto.","ticket":{"ticketId":"TKT-123","clienteNombre":"Ana"}}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL, time.Second, time.Second).Invoke(context.Background(), ImageRequest{
		Message: "revisa este error", UserID: "u1", ChatID: "c1", DisplayName: "Ana",
		Image: []byte("jpeg-bytes"), ImageContentType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, TicketReply{Text: "Necesito escalar esto.", TicketID: "TKT-123", ClientName: "Ana"}, reply)
}

func slowServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func TestInvokeImageTimeout(t *testing.T) {
	srv := slowServer(t)

	_, err := newTestClient(srv.URL, time.Second, 50*time.Millisecond).Invoke(context.Background(), ImageRequest{
		Message: "x", Image: []byte("img"), ImageContentType: "image/png",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageTimeout)
	assert.Equal(t, apperr.KindGatewayTimeout, apperr.GetKind(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MsgImageTimeout, appErr.Message)
}

func TestInvokeTextTimeoutIsGenericFailure(t *testing.T) {
	srv := slowServer(t)

	_, err := newTestClient(srv.URL, 50*time.Millisecond, time.Second).Invoke(context.Background(), TextRequest{Message: "x"})

	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, apperr.KindGateway, apperr.GetKind(err))
}

func TestInvokeNon2xxIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "workflow crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second, time.Second).Invoke(context.Background(), TextRequest{Message: "x"})

	assert.ErrorIs(t, err, ErrGateway)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MsgFailure, appErr.Message)
	assert.NotContains(t, appErr.Error(), "workflow crashed")
}

func TestInvokeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Second, time.Second).Invoke(context.Background(), ImageRequest{Image: []byte("x")})

	assert.ErrorIs(t, err, ErrGateway)
	assert.NotErrorIs(t, err, ErrImageTimeout)
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "image.png", imageFileName("image/png"))
	assert.Equal(t, "image.webp", imageFileName("image/webp; q=1"))
	assert.Equal(t, "image.png", imageFileName("garbage"))
}
