package handler

import (
	"net/http"

	"helpdesk_backend/internal/chats/service"
	"helpdesk_backend/internal/chats/transport"
	"helpdesk_backend/platform/httpkit"
	"helpdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for chats.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid chat ID"
	msgChatDeleted      = "chat deleted"
)

// New creates a new chats handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create starts a new chat.
// POST /api/v1/chats
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateChatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.CreateChat(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// List returns the caller's chats.
// GET /api/v1/chats
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListChats(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get returns one chat with its history.
// GET /api/v1/chats/:id
func (h *Handler) Get(c *gin.Context) {
	identity, chatID, ok := h.chatParams(c)
	if !ok {
		return
	}

	result, err := h.svc.GetChat(c.Request.Context(), chatID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Messages returns a chat's history.
// GET /api/v1/chats/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	identity, chatID, ok := h.chatParams(c)
	if !ok {
		return
	}

	result, err := h.svc.ListMessages(c.Request.Context(), chatID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddMessage sends a user message and returns the assistant's reply.
// POST /api/v1/chats/:id/messages
func (h *Handler) AddMessage(c *gin.Context) {
	identity, chatID, ok := h.chatParams(c)
	if !ok {
		return
	}

	var req transport.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.AddMessage(c.Request.Context(), service.AddMessageInput{
		ChatID:   chatID,
		UserID:   identity.UserID(),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateTitle renames a chat.
// PATCH /api/v1/chats/:id
func (h *Handler) UpdateTitle(c *gin.Context) {
	identity, chatID, ok := h.chatParams(c)
	if !ok {
		return
	}

	var req transport.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateTitle(c.Request.Context(), chatID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a chat.
// DELETE /api/v1/chats/:id
func (h *Handler) Delete(c *gin.Context) {
	identity, chatID, ok := h.chatParams(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteChat(c.Request.Context(), chatID, identity.UserID())) {
		return
	}
	httpkit.OK(c, transport.SuccessResponse{Success: true, Message: msgChatDeleted})
}

func (h *Handler) chatParams(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil, false
	}
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return nil, uuid.Nil, false
	}
	return identity, chatID, true
}
