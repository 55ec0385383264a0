// Package tickets provides the support-ticket bounded context: suggestions
// proposed by the assistant, the user's confirm or cancel decision, and
// admin resolution.
package tickets

import (
	"helpdesk_backend/internal/events"
	apphttp "helpdesk_backend/internal/http"
	"helpdesk_backend/internal/tickets/handler"
	"helpdesk_backend/internal/tickets/repository"
	"helpdesk_backend/internal/tickets/service"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/logger"
	"helpdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tickets bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the tickets module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	users usersrepo.Reader,
	chats service.ChatLookup,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, users, chats, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tickets"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the store for background maintenance.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts ticket routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	tickets := ctx.Protected.Group("/tickets")
	tickets.POST("/suggest", m.handler.Suggest)
	tickets.POST("/confirm", m.handler.Confirm)
	tickets.POST("/cancel", m.handler.Cancel)
	tickets.GET("", m.handler.ListMine)

	admin := ctx.Admin.Group("/tickets")
	admin.GET("", m.handler.ListAll)
	admin.PATCH("/:id/resolve", m.handler.Resolve)
}

var _ apphttp.Module = (*Module)(nil)
