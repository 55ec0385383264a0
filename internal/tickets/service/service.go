// Package service runs the ticket lifecycle: a suggestion is stored as
// pending and becomes durable only when its owner confirms it.
package service

import (
	"context"
	"strings"

	chatsrepo "helpdesk_backend/internal/chats/repository"
	"helpdesk_backend/internal/events"
	"helpdesk_backend/internal/tickets/domain"
	"helpdesk_backend/internal/tickets/repository"
	"helpdesk_backend/internal/tickets/transport"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/logger"
	"helpdesk_backend/platform/sanitize"

	"github.com/google/uuid"
)

const maxLabelRunes = 200

// ChatLookup verifies a chat belongs to the user.
type ChatLookup interface {
	GetChat(ctx context.Context, id, userID uuid.UUID) (chatsrepo.Chat, error)
}

// Service provides business logic for tickets.
type Service struct {
	repo     repository.Repository
	users    usersrepo.Reader
	chats    ChatLookup
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new tickets service.
func New(repo repository.Repository, users usersrepo.Reader, chats ChatLookup, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, users: users, chats: chats, eventBus: eventBus, log: log}
}

// SuggestInput is a pending ticket proposed for userID.
type SuggestInput struct {
	UserID       uuid.UUID
	TicketNumber string
	ClientName   string
	Subject      string
	Detail       string
	Priority     domain.Priority
	ImageURL     *string
	ChatID       *uuid.UUID
}

// Suggest stores a pending ticket. Repeating it for the same number returns
// the existing pending ticket.
func (s *Service) Suggest(ctx context.Context, in SuggestInput) (transport.TicketResponse, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return transport.TicketResponse{}, err
	}
	if in.ChatID != nil {
		if _, err := s.chats.GetChat(ctx, *in.ChatID, in.UserID); err != nil {
			return transport.TicketResponse{}, err
		}
	}

	priority := in.Priority
	if !priority.Valid() {
		priority = domain.DefaultPriority
	}
	clientName := sanitize.Title(in.ClientName, maxLabelRunes)
	if clientName == "" {
		clientName = user.DisplayName
	}

	t, err := s.repo.CreatePending(ctx, repository.CreateParams{
		TicketNumber: strings.TrimSpace(in.TicketNumber),
		UserID:       in.UserID,
		ChatID:       in.ChatID,
		ClientName:   clientName,
		Subject:      sanitize.Title(in.Subject, maxLabelRunes),
		Detail:       in.Detail,
		Priority:     priority,
		ImageURL:     in.ImageURL,
	})
	if err != nil {
		return transport.TicketResponse{}, err
	}
	s.log.WithContext(ctx).Info("ticket suggested", "ticket_number", t.TicketNumber, "ticket_id", t.ID)
	return ToResponse(t), nil
}

// Confirm moves the caller's pending ticket to confirmed.
func (s *Service) Confirm(ctx context.Context, ticketNumber string, userID uuid.UUID) (transport.TicketResponse, error) {
	number := strings.TrimSpace(ticketNumber)
	pending, err := s.repo.GetPending(ctx, number, userID)
	if err != nil {
		return transport.TicketResponse{}, err
	}
	if _, err := domain.Transition(pending.Status, domain.StatusConfirmed); err != nil {
		return transport.TicketResponse{}, err
	}

	t, err := s.repo.MarkConfirmed(ctx, number, userID)
	if err != nil {
		return transport.TicketResponse{}, err
	}

	s.eventBus.Publish(ctx, events.TicketConfirmed{
		BaseEvent:    events.NewBaseEvent(),
		TicketID:     t.ID,
		TicketNumber: t.TicketNumber,
		UserID:       t.UserID,
		ChatID:       t.ChatID,
		ClientName:   t.ClientName,
		Subject:      t.Subject,
		Detail:       t.Detail,
		Priority:     string(t.Priority),
		ImageURL:     t.ImageURL,
	})
	s.log.WithContext(ctx).Info("ticket confirmed", "ticket_number", t.TicketNumber, "ticket_id", t.ID)
	return ToResponse(t), nil
}

// Cancel discards the caller's pending ticket.
func (s *Service) Cancel(ctx context.Context, ticketNumber string, userID uuid.UUID) error {
	number := strings.TrimSpace(ticketNumber)
	pending, err := s.repo.GetPending(ctx, number, userID)
	if err != nil {
		return err
	}
	if _, err := domain.Transition(pending.Status, domain.StatusCancelled); err != nil {
		return err
	}
	if err := s.repo.DeletePending(ctx, number, userID); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, events.TicketCancelled{
		BaseEvent:    events.NewBaseEvent(),
		TicketNumber: number,
		UserID:       userID,
	})
	s.log.WithContext(ctx).Info("ticket cancelled", "ticket_number", number)
	return nil
}

// Resolve closes a confirmed ticket.
func (s *Service) Resolve(ctx context.Context, ticketID uuid.UUID, adminNote string) (transport.TicketResponse, error) {
	current, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return transport.TicketResponse{}, err
	}
	if _, err := domain.Transition(current.Status, domain.StatusResolved); err != nil {
		return transport.TicketResponse{}, err
	}

	note := strings.TrimSpace(adminNote)
	t, err := s.repo.MarkResolved(ctx, ticketID, note)
	if err != nil {
		return transport.TicketResponse{}, err
	}

	s.eventBus.Publish(ctx, events.TicketResolved{
		BaseEvent:    events.NewBaseEvent(),
		TicketID:     t.ID,
		TicketNumber: t.TicketNumber,
		UserID:       t.UserID,
		AdminNote:    note,
	})
	s.log.WithContext(ctx).Info("ticket resolved", "ticket_id", t.ID)
	return ToResponse(t), nil
}

// ListForUser returns the caller's tickets.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]transport.TicketResponse, error) {
	tickets, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(tickets), nil
}

// ListAll returns every ticket, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, status string) ([]transport.TicketResponse, error) {
	var filter *domain.Status
	if status != "" {
		st := domain.Status(status)
		filter = &st
	}
	tickets, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toResponses(tickets), nil
}

// ToResponse maps a stored ticket to its API shape.
func ToResponse(t repository.Ticket) transport.TicketResponse {
	return transport.TicketResponse{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		UserID:       t.UserID,
		ChatID:       t.ChatID,
		ClientName:   t.ClientName,
		Subject:      t.Subject,
		Detail:       t.Detail,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		ImageURL:     t.ImageURL,
		AdminNote:    t.AdminNote,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toResponses(tickets []repository.Ticket) []transport.TicketResponse {
	out := make([]transport.TicketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = ToResponse(t)
	}
	return out
}
