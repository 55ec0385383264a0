package handler

import (
	"helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the caller's own profile.
type Handler struct {
	users repository.Reader
}

// New creates a users handler.
func New(users repository.Reader) *Handler {
	return &Handler{users: users}
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, user)
}
