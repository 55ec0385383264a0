// Package notification provides event handlers for sending notifications
// (emails and live stream events) in response to ticket events.
// Domain modules publish events and never talk to email providers.
package notification

import (
	"context"
	"time"

	"helpdesk_backend/internal/email"
	"helpdesk_backend/internal/events"
	apphttp "helpdesk_backend/internal/http"
	"helpdesk_backend/internal/notification/sse"
	"helpdesk_backend/internal/scheduler"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/httpkit"
	"helpdesk_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module handles ticket notifications.
type Module struct {
	sender       email.Sender
	users        usersrepo.Reader
	supportInbox string
	queue        scheduler.NotificationQueue
	sse          *sse.Service
	log          *logger.Logger
}

// New creates the notification module. Without a queue, emails are sent
// inline from the event handler.
func New(sender email.Sender, users usersrepo.Reader, supportInbox string, log *logger.Logger) *Module {
	return &Module{
		sender:       sender,
		users:        users,
		supportInbox: supportInbox,
		sse:          sse.New(log),
		log:          log,
	}
}

// SetQueue routes emails through the background worker.
func (m *Module) SetQueue(queue scheduler.NotificationQueue) { m.queue = queue }

// SSE returns the live stream service.
func (m *Module) SSE() *sse.Service { return m.sse }

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the live ticket event stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications/stream", m.sse.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		if identity == nil || !identity.IsAuthenticated() {
			return uuid.Nil, false
		}
		return identity.UserID(), true
	}))
}

// RegisterHandlers subscribes the module to ticket events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TicketConfirmed{}.EventName(), m)
	bus.Subscribe(events.TicketCancelled{}.EventName(), m)
	bus.Subscribe(events.TicketResolved{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TicketConfirmed:
		return m.handleTicketConfirmed(ctx, e)
	case events.TicketCancelled:
		m.sse.Publish(e.UserID, sse.Event{Type: sse.EventTicketCancelled, TicketNumber: e.TicketNumber})
		return nil
	case events.TicketResolved:
		return m.handleTicketResolved(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleTicketConfirmed(ctx context.Context, e events.TicketConfirmed) error {
	m.sse.Publish(e.UserID, sse.Event{Type: sse.EventTicketConfirmed, TicketNumber: e.TicketNumber, Data: e})

	return m.dispatch(ctx, scheduler.TicketNotificationPayload{
		Kind:         scheduler.TicketNotificationConfirmed,
		TicketID:     e.TicketID.String(),
		TicketNumber: e.TicketNumber,
		UserID:       e.UserID.String(),
		ClientName:   e.ClientName,
		Subject:      e.Subject,
		Detail:       e.Detail,
		Priority:     e.Priority,
		ImageURL:     derefStr(e.ImageURL),
		OccurredAt:   e.OccurredAt().UnixMilli(),
	})
}

func (m *Module) handleTicketResolved(ctx context.Context, e events.TicketResolved) error {
	m.sse.Publish(e.UserID, sse.Event{Type: sse.EventTicketResolved, TicketNumber: e.TicketNumber, Message: e.AdminNote})

	return m.dispatch(ctx, scheduler.TicketNotificationPayload{
		Kind:         scheduler.TicketNotificationResolved,
		TicketID:     e.TicketID.String(),
		TicketNumber: e.TicketNumber,
		UserID:       e.UserID.String(),
		AdminNote:    e.AdminNote,
		OccurredAt:   e.OccurredAt().UnixMilli(),
	})
}

func (m *Module) dispatch(ctx context.Context, payload scheduler.TicketNotificationPayload) error {
	if m.queue != nil {
		return m.queue.EnqueueTicketNotification(ctx, payload)
	}
	return m.NotifyTicket(ctx, payload)
}

// NotifyTicket sends the email for one notification. The worker calls it for
// queued notifications.
func (m *Module) NotifyTicket(ctx context.Context, p scheduler.TicketNotificationPayload) error {
	ticket := email.Ticket{
		TicketNumber: p.TicketNumber,
		ClientName:   p.ClientName,
		Subject:      p.Subject,
		Detail:       p.Detail,
		Priority:     p.Priority,
		ImageURL:     p.ImageURL,
		AdminNote:    p.AdminNote,
	}
	if p.OccurredAt > 0 {
		ticket.OccurredAt = time.UnixMilli(p.OccurredAt)
	}

	user, err := m.lookupUser(ctx, p.UserID)
	if err != nil {
		return err
	}
	ticket.ClientEmail = user.Email
	if ticket.ClientName == "" {
		ticket.ClientName = user.DisplayName
	}

	switch p.Kind {
	case scheduler.TicketNotificationConfirmed:
		if m.supportInbox == "" {
			m.log.Debug("support inbox not configured, skipping email", "ticket_number", p.TicketNumber)
			return nil
		}
		return m.sender.SendTicketConfirmedEmail(ctx, m.supportInbox, ticket)
	case scheduler.TicketNotificationResolved:
		return m.sender.SendTicketResolvedEmail(ctx, user.Email, ticket)
	default:
		m.log.Warn("unknown ticket notification kind", "kind", p.Kind)
		return nil
	}
}

func (m *Module) lookupUser(ctx context.Context, rawID string) (usersrepo.User, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return usersrepo.User{}, err
	}
	return m.users.GetByID(ctx, id)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var (
	_ apphttp.Module           = (*Module)(nil)
	_ events.Handler           = (*Module)(nil)
	_ scheduler.TicketNotifier = (*Module)(nil)
)
