package email

import (
	"testing"
	"time"

	"helpdesk_backend/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func sampleTicket() Ticket {
	return Ticket{
		TicketNumber: "TKT-123",
		ClientName:   "Ana <script>",
		ClientEmail:  "ana@example.com",
		Subject:      "revisa este error",
		Detail:       "revisa este error",
		Priority:     "high",
		ImageURL:     "https://files.example.com/a.png",
		OccurredAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestTicketConfirmedContent(t *testing.T) {
	subject, body, err := ticketConfirmedContent(sampleTicket())
	require.NoError(t, err)

	assert.Equal(t, "[HIGH] New support ticket TKT-123: revisa este error", subject)
	assert.Contains(t, body, "Ana &lt;script&gt;")
	assert.Contains(t, body, `href="https://files.example.com/a.png"`)
	assert.Contains(t, body, "2026-03-01 09:30 UTC")
}

func TestTicketResolvedContent(t *testing.T) {
	ticket := sampleTicket()
	ticket.AdminNote = "Reset the cache."

	subject, body, err := ticketResolvedContent(ticket)
	require.NoError(t, err)

	assert.Equal(t, "Your support ticket TKT-123 has been resolved", subject)
	assert.Contains(t, body, "Reset the cache.")
	assert.NotContains(t, body, "View attached image")
}

func TestBuildMessageSetsHeaders(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "desk@example.com", "Help Desk")

	msg, err := s.buildMessage("support@example.com", "hello", "<p>x</p>")
	require.NoError(t, err)

	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"support@example.com"}, recipients)
	assert.Equal(t, []string{"hello"}, msg.GetGenHeader(gomail.HeaderSubject))

	_, err = s.buildMessage("not an address", "x", "y")
	assert.Error(t, err)
}

func TestNewSenderFallsBackToNoop(t *testing.T) {
	assert.IsType(t, NoopSender{}, NewSender(&config.Config{}))

	cfg := &config.Config{SMTPHost: "smtp.example.com", SupportInboxAddress: "support@example.com", EmailFromAddress: "desk@example.com"}
	assert.IsType(t, &SMTPSender{}, NewSender(cfg))
}
