package handler

import (
	"net/http"

	"helpdesk_backend/internal/tickets/domain"
	"helpdesk_backend/internal/tickets/service"
	"helpdesk_backend/internal/tickets/transport"
	"helpdesk_backend/platform/httpkit"
	"helpdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ticket ID"
	msgInvalidStatus    = "invalid status filter"
	msgConfirmed        = "ticket confirmed"
	msgCancelled        = "ticket cancelled"
)

// Handler handles HTTP requests for tickets.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new tickets handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

// Suggest records a pending ticket for the caller.
// POST /api/v1/tickets/suggest
func (h *Handler) Suggest(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.SuggestRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Suggest(c.Request.Context(), service.SuggestInput{
		UserID:       identity.UserID(),
		TicketNumber: req.TicketNumber,
		ClientName:   req.ClientName,
		Subject:      req.Subject,
		Detail:       req.Detail,
		Priority:     domain.Priority(req.Priority),
		ImageURL:     req.ImageURL,
		ChatID:       req.ChatID,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Confirm accepts a pending ticket.
// POST /api/v1/tickets/confirm
func (h *Handler) Confirm(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.TicketNumberRequest
	if !h.bind(c, &req) {
		return
	}

	ticket, err := h.svc.Confirm(c.Request.Context(), req.TicketNumber, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConfirmResponse{Success: true, Ticket: ticket, Message: msgConfirmed})
}

// Cancel discards a pending ticket.
// POST /api/v1/tickets/cancel
func (h *Handler) Cancel(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.TicketNumberRequest
	if !h.bind(c, &req) {
		return
	}

	if httpkit.HandleError(c, h.svc.Cancel(c.Request.Context(), req.TicketNumber, identity.UserID())) {
		return
	}
	httpkit.OK(c, transport.SuccessResponse{Success: true, Message: msgCancelled})
}

// ListMine returns the caller's tickets.
// GET /api/v1/tickets
func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ListForUser(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAll returns every ticket.
// GET /api/v1/admin/tickets?status=
func (h *Handler) ListAll(c *gin.Context) {
	status := c.Query("status")
	switch domain.Status(status) {
	case "", domain.StatusPending, domain.StatusConfirmed, domain.StatusResolved:
	default:
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStatus, nil)
		return
	}

	result, err := h.svc.ListAll(c.Request.Context(), status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Resolve closes a confirmed ticket.
// PATCH /api/v1/admin/tickets/:id/resolve
func (h *Handler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.ResolveRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), id, req.AdminNote)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
