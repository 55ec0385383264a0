package attachments

import (
	"context"

	"helpdesk_backend/internal/attachments/handler"
	apphttp "helpdesk_backend/internal/http"
)

// Module exposes the upload endpoint for the relay.
type Module struct {
	relay   *Relay
	handler *handler.Handler
}

// NewModule wraps an existing relay with its HTTP surface.
func NewModule(relay *Relay) *Module {
	return &Module{relay: relay, handler: handler.New(relay)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "attachments" }

// Relay returns the relay for other modules.
func (m *Module) Relay() *Relay { return m.relay }

// EnsureBucket creates the attachments bucket when it is missing.
func (m *Module) EnsureBucket(ctx context.Context) error {
	return m.relay.storage.EnsureBucketExists(ctx, m.relay.bucket)
}

// RegisterRoutes mounts the upload route behind the slow-path rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/upload", ctx.SlowRateLimiter.RateLimit(), m.handler.Upload)
}

var _ apphttp.Module = (*Module)(nil)
