// Package users exposes the read-only user directory shared by the chat and
// ticket modules.
package users

import (
	apphttp "helpdesk_backend/internal/http"
	"helpdesk_backend/internal/users/handler"
	"helpdesk_backend/internal/users/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the users bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repo
}

// NewModule creates the users module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{handler: handler.New(repo), repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "users" }

// Repository returns the reader used by other modules.
func (m *Module) Repository() repository.Reader { return m.repo }

// RegisterRoutes mounts user routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/users/me", m.handler.Me)
}

var _ apphttp.Module = (*Module)(nil)
