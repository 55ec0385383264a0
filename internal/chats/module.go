// Package chats provides the conversation bounded context: chats, their
// messages, and the turn orchestration against the automation endpoint.
package chats

import (
	"helpdesk_backend/internal/chats/handler"
	"helpdesk_backend/internal/chats/repository"
	"helpdesk_backend/internal/chats/service"
	apphttp "helpdesk_backend/internal/http"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/logger"
	"helpdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the chats bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the chats module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	users usersrepo.Reader,
	gw service.Gateway,
	attachments service.Attachments,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, users, gw, attachments, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "chats"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Chats exposes owner-scoped chat reads to other modules.
func (m *Module) Chats() repository.ChatReader {
	return m.repo
}

// RegisterRoutes mounts chat routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	chats := ctx.Protected.Group("/chats")
	chats.POST("", m.handler.Create)
	chats.GET("", m.handler.List)
	chats.GET("/:id", m.handler.Get)
	chats.GET("/:id/messages", m.handler.Messages)
	chats.POST("/:id/messages", ctx.SlowRateLimiter.RateLimit(), m.handler.AddMessage)
	chats.PATCH("/:id", m.handler.UpdateTitle)
	chats.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
