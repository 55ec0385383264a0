package clientview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	chatstransport "helpdesk_backend/internal/chats/transport"
	ticketstransport "helpdesk_backend/internal/tickets/transport"

	"github.com/google/uuid"
)

const (
	apiPrefix = "/api/v1"
	// The server may wait up to the image budget before answering a send.
	defaultClientTimeout = 16 * time.Minute
	maxResponseBytes     = 8 << 20
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// HTTPClient implements API against the help-desk server.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient creates a client for baseURL authenticated with a bearer token.
func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

var _ API = (*HTTPClient)(nil)

func (c *HTTPClient) ListChats(ctx context.Context) ([]chatstransport.ChatResponse, error) {
	var out []chatstransport.ChatResponse
	err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &out)
	return out, err
}

func (c *HTTPClient) CreateChat(ctx context.Context, title string) (chatstransport.ChatResponse, error) {
	var out chatstransport.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chats", chatstransport.CreateChatRequest{Title: title}, &out)
	return out, err
}

func (c *HTTPClient) SendMessage(ctx context.Context, chatID uuid.UUID, content, imageURL string) (chatstransport.AddMessageResponse, error) {
	var out chatstransport.AddMessageResponse
	err := c.doJSON(ctx, http.MethodPost, "/chats/"+chatID.String()+"/messages",
		chatstransport.AddMessageRequest{Content: content, ImageURL: imageURL}, &out)
	return out, err
}

func (c *HTTPClient) SuggestTicket(ctx context.Context, req ticketstransport.SuggestRequest) (ticketstransport.TicketResponse, error) {
	var out ticketstransport.TicketResponse
	err := c.doJSON(ctx, http.MethodPost, "/tickets/suggest", req, &out)
	return out, err
}

func (c *HTTPClient) ConfirmTicket(ctx context.Context, ticketNumber string) (ticketstransport.TicketResponse, error) {
	var out ticketstransport.ConfirmResponse
	err := c.doJSON(ctx, http.MethodPost, "/tickets/confirm", ticketstransport.TicketNumberRequest{TicketNumber: ticketNumber}, &out)
	return out.Ticket, err
}

func (c *HTTPClient) CancelTicket(ctx context.Context, ticketNumber string) error {
	return c.doJSON(ctx, http.MethodPost, "/tickets/cancel", ticketstransport.TicketNumberRequest{TicketNumber: ticketNumber}, nil)
}

// UploadImage posts the image as multipart field "image" and returns its URL.
func (c *HTTPClient) UploadImage(ctx context.Context, fileName string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, fileName))
	header.Set("Content-Type", http.DetectContentType(data))
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/upload", &body, writer.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
