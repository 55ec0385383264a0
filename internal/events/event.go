// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"helpdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Ticket Domain Events
// =============================================================================

// TicketConfirmed is published when a user accepts a suggested ticket and it
// enters the support queue.
type TicketConfirmed struct {
	BaseEvent
	TicketID     uuid.UUID  `json:"ticketId"`
	TicketNumber string     `json:"ticketNumber"`
	UserID       uuid.UUID  `json:"userId"`
	ChatID       *uuid.UUID `json:"chatId,omitempty"`
	ClientName   string     `json:"clientName"`
	Subject      string     `json:"subject"`
	Detail       string     `json:"detail"`
	Priority     string     `json:"priority"`
	ImageURL     *string    `json:"imageUrl,omitempty"`
}

func (e TicketConfirmed) EventName() string { return "tickets.ticket.confirmed" }

// TicketCancelled is published when a user discards a suggested ticket.
type TicketCancelled struct {
	BaseEvent
	TicketNumber string    `json:"ticketNumber"`
	UserID       uuid.UUID `json:"userId"`
}

func (e TicketCancelled) EventName() string { return "tickets.ticket.cancelled" }

// TicketResolved is published when an administrator closes a confirmed ticket.
type TicketResolved struct {
	BaseEvent
	TicketID     uuid.UUID `json:"ticketId"`
	TicketNumber string    `json:"ticketNumber"`
	UserID       uuid.UUID `json:"userId"`
	AdminNote    string    `json:"adminNote"`
}

func (e TicketResolved) EventName() string { return "tickets.ticket.resolved" }
