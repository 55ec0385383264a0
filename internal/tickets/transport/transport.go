package transport

import (
	"time"

	"github.com/google/uuid"
)

// SuggestRequest records a ticket the assistant proposed. The caller is the
// ticket owner.
type SuggestRequest struct {
	TicketNumber string     `json:"ticketNumber" validate:"required,max=64"`
	ClientName   string     `json:"clientName" validate:"max=200"`
	Subject      string     `json:"subject" validate:"required,max=200"`
	Detail       string     `json:"detail" validate:"required,max=10000"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ImageURL     *string    `json:"imageUrl" validate:"omitempty,url,max=2048"`
	ChatID       *uuid.UUID `json:"chatId"`
}

// TicketNumberRequest names a pending ticket of the caller.
type TicketNumberRequest struct {
	TicketNumber string `json:"ticketNumber" validate:"required,max=64"`
}

// ResolveRequest closes a confirmed ticket.
type ResolveRequest struct {
	AdminNote string `json:"adminNote" validate:"max=2000"`
}

// TicketResponse is a ticket as returned by the API.
type TicketResponse struct {
	ID           uuid.UUID  `json:"id"`
	TicketNumber string     `json:"ticketNumber"`
	UserID       uuid.UUID  `json:"userId"`
	ChatID       *uuid.UUID `json:"chatId"`
	ClientName   string     `json:"clientName"`
	Subject      string     `json:"subject"`
	Detail       string     `json:"detail"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	ImageURL     *string    `json:"imageUrl"`
	AdminNote    *string    `json:"adminNote"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ConfirmResponse is the result of POST /tickets/confirm.
type ConfirmResponse struct {
	Success bool           `json:"success"`
	Ticket  TicketResponse `json:"ticket"`
	Message string         `json:"message"`
}

// SuccessResponse acknowledges a mutation without a body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
