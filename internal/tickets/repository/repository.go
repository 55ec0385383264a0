// Package repository persists support tickets.
package repository

import (
	"context"
	"time"

	"helpdesk_backend/internal/tickets/domain"

	"github.com/google/uuid"
)

// Ticket is a persisted support ticket.
type Ticket struct {
	ID           uuid.UUID
	TicketNumber string
	UserID       uuid.UUID
	ChatID       *uuid.UUID
	ClientName   string
	Subject      string
	Detail       string
	Priority     domain.Priority
	Status       domain.Status
	ImageURL     *string
	AdminNote    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams holds the fields of a new pending ticket.
type CreateParams struct {
	TicketNumber string
	UserID       uuid.UUID
	ChatID       *uuid.UUID
	ClientName   string
	Subject      string
	Detail       string
	Priority     domain.Priority
	ImageURL     *string
}

// Repository is the ticket store. Every mutation is conditional on the
// current status so concurrent requests cannot both win a transition.
type Repository interface {
	// CreatePending inserts a pending ticket, or returns the existing pending
	// ticket with the same (user, number).
	CreatePending(ctx context.Context, p CreateParams) (Ticket, error)
	GetPending(ctx context.Context, ticketNumber string, userID uuid.UUID) (Ticket, error)
	// MarkConfirmed moves a pending ticket to confirmed and returns it.
	MarkConfirmed(ctx context.Context, ticketNumber string, userID uuid.UUID) (Ticket, error)
	// DeletePending removes a pending ticket.
	DeletePending(ctx context.Context, ticketNumber string, userID uuid.UUID) error
	// MarkResolved moves a confirmed ticket to resolved.
	MarkResolved(ctx context.Context, id uuid.UUID, adminNote string) (Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (Ticket, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Ticket, error)
	ListAll(ctx context.Context, status *domain.Status) ([]Ticket, error)
}
