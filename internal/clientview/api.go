// Package clientview is the client-side model of a help-desk conversation:
// an optimistic message list reconciled against the server after every send.
package clientview

import (
	"context"

	chatstransport "helpdesk_backend/internal/chats/transport"
	ticketstransport "helpdesk_backend/internal/tickets/transport"

	"github.com/google/uuid"
)

// API is the server contract the view-model drives.
type API interface {
	ListChats(ctx context.Context) ([]chatstransport.ChatResponse, error)
	CreateChat(ctx context.Context, title string) (chatstransport.ChatResponse, error)
	UploadImage(ctx context.Context, fileName string, data []byte) (string, error)
	SendMessage(ctx context.Context, chatID uuid.UUID, content, imageURL string) (chatstransport.AddMessageResponse, error)
	SuggestTicket(ctx context.Context, req ticketstransport.SuggestRequest) (ticketstransport.TicketResponse, error)
	ConfirmTicket(ctx context.Context, ticketNumber string) (ticketstransport.TicketResponse, error)
	CancelTicket(ctx context.Context, ticketNumber string) error
}
