package email

import (
	"context"
	"time"
)

// Ticket is the data rendered into ticket notification emails.
type Ticket struct {
	TicketNumber string
	ClientName   string
	ClientEmail  string
	Subject      string
	Detail       string
	Priority     string
	ImageURL     string
	AdminNote    string
	OccurredAt   time.Time
}

// Sender delivers support-desk notification emails.
type Sender interface {
	// SendTicketConfirmedEmail tells the support inbox a ticket entered the queue.
	SendTicketConfirmedEmail(ctx context.Context, toEmail string, ticket Ticket) error
	// SendTicketResolvedEmail tells the ticket owner it was closed.
	SendTicketResolvedEmail(ctx context.Context, toEmail string, ticket Ticket) error
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendTicketConfirmedEmail(context.Context, string, Ticket) error { return nil }
func (NoopSender) SendTicketResolvedEmail(context.Context, string, Ticket) error  { return nil }

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
