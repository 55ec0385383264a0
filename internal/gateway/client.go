// Package gateway invokes the external automation webhook that produces the
// assistant's replies, and normalizes what it returns.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"helpdesk_backend/platform/apperr"
	"helpdesk_backend/platform/config"
	"helpdesk_backend/platform/logger"
)

// User-facing messages. Transport details stay in the logs.
const (
	MsgImageTimeout = "image analysis took too long, try again with a smaller image"
	MsgFailure      = "could not process the request"
)

const maxReplyBytes = 4 << 20

var (
	// ErrImageTimeout marks an image invocation that exhausted its budget.
	ErrImageTimeout = errors.New("image analysis timed out")
	// ErrGateway marks every other failure talking to the endpoint.
	ErrGateway = errors.New("automation endpoint failed")
)

// Client talks to the automation webhook. It never retries.
type Client struct {
	url          string
	textTimeout  time.Duration
	imageTimeout time.Duration
	http         *http.Client
	log          *logger.Logger
}

// NewClient creates a gateway client. Budgets are enforced per call through
// the request context, so the underlying http.Client has no global timeout.
func NewClient(cfg config.GatewayConfig, log *logger.Logger) *Client {
	return &Client{
		url:          cfg.GetAutomationWebhookURL(),
		textTimeout:  cfg.GetGatewayTextTimeout(),
		imageTimeout: cfg.GetGatewayImageTimeout(),
		http:         &http.Client{},
		log:          log,
	}
}

// Invoke sends req and returns the normalized reply.
func (c *Client) Invoke(ctx context.Context, req Request) (Reply, error) {
	budget := c.textTimeout
	if req.kind() == kindImage {
		budget = c.imageTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	body, err := c.do(ctx, req)
	c.log.WithContext(ctx).GatewayCall(req.kind(), req.chat(), time.Since(start), err)
	if err != nil {
		return nil, c.classify(ctx, req, err)
	}

	return Normalize(body), nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	body, contentType, err := encode(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxReplyBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxReplyBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, snippet(data))
	}
	return data, nil
}

func (c *Client) classify(ctx context.Context, req Request, err error) error {
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
	if timedOut && req.kind() == kindImage {
		return apperr.Wrap(apperr.KindGatewayTimeout, MsgImageTimeout, fmt.Errorf("%w: %v", ErrImageTimeout, err)).
			WithOp("gateway.Invoke")
	}
	return apperr.Wrap(apperr.KindGateway, MsgFailure, fmt.Errorf("%w: %v", ErrGateway, err)).
		WithOp("gateway.Invoke")
}

func encode(req Request) (io.Reader, string, error) {
	switch r := req.(type) {
	case TextRequest:
		payload, err := json.Marshal(textPayload{
			Message:       r.Message,
			UserID:        r.UserID,
			ChatID:        r.ChatID,
			ClienteNombre: r.DisplayName,
		})
		if err != nil {
			return nil, "", fmt.Errorf("marshal text payload: %w", err)
		}
		return bytes.NewReader(payload), "application/json", nil
	case ImageRequest:
		return encodeMultipart(r)
	default:
		return nil, "", fmt.Errorf("unsupported request %T", req)
	}
}

func encodeMultipart(r ImageRequest) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	contentType := r.ImageContentType
	if contentType == "" {
		contentType = "image/png"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, imageFileName(contentType)))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(r.Image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}

	fields := [][2]string{
		{"userId", r.UserID},
		{"chatId", r.ChatID},
		{"clienteNombre", r.DisplayName},
		{"message", r.Message},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// imageFileName derives "image.<subtype>" from a content type.
func imageFileName(contentType string) string {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	_, subtype, _ := strings.Cut(mediaType, "/")
	if subtype == "" {
		subtype = "png"
	}
	return "image." + subtype
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
