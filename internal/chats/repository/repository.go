package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is one of the two known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Chat is a conversation owned by one user.
type Chat struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Title          string
	LastMessage    string
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// Message is an immutable entry in a chat.
type Message struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	Content   string
	Sender    Sender
	ImageURL  *string
	CreatedAt time.Time
}

// CreateMessageParams contains parameters for appending a message.
type CreateMessageParams struct {
	ChatID   uuid.UUID
	Content  string
	Sender   Sender
	ImageURL *string
}

// ActivityParams records a reply on the chat summary. When the current title
// is one of PlaceholderTitles it is replaced by RenameTo.
type ActivityParams struct {
	ChatID            uuid.UUID
	LastMessage       string
	RenameTo          string
	PlaceholderTitles []string
}

// ChatReader provides read operations for chats and messages.
type ChatReader interface {
	// GetChat returns the chat only when userID owns it.
	GetChat(ctx context.Context, id, userID uuid.UUID) (Chat, error)
	// ListChats returns the user's chats, most recently active first.
	ListChats(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	// ListMessages returns a chat's messages in conversation order.
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	// ListLeadingMessages returns up to perChat earliest messages of each chat.
	ListLeadingMessages(ctx context.Context, chatIDs []uuid.UUID, perChat int) (map[uuid.UUID][]Message, error)
	// ListImageURLs returns every image URL referenced by a chat's messages.
	ListImageURLs(ctx context.Context, chatID uuid.UUID) ([]string, error)
}

// ChatWriter provides write operations. Messages are append-only.
type ChatWriter interface {
	CreateChat(ctx context.Context, userID uuid.UUID, title string) (Chat, error)
	UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (Chat, error)
	DeleteChat(ctx context.Context, id, userID uuid.UUID) error
	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	RecordActivity(ctx context.Context, params ActivityParams) (Chat, error)
}

// Repository combines all chat repository operations.
type Repository interface {
	ChatReader
	ChatWriter
}
