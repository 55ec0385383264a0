package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateChatRequest creates a chat. An empty title gets the placeholder.
type CreateChatRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// UpdateTitleRequest renames a chat.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// AddMessageRequest sends a message. Content may be empty when ImageURL is set.
type AddMessageRequest struct {
	Content  string `json:"content" validate:"max=10000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

// MessageResponse is a persisted message.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chatId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatResponse is a chat with an optional slice of its messages.
type ChatResponse struct {
	ID             uuid.UUID         `json:"id"`
	Title          string            `json:"title"`
	LastMessage    string            `json:"lastMessage"`
	LastActivityAt time.Time         `json:"lastActivityAt"`
	CreatedAt      time.Time         `json:"createdAt"`
	Messages       []MessageResponse `json:"messages,omitempty"`
}

// TicketSuggestion is the payload a client passes to POST /tickets/suggest
// once the user is prompted.
type TicketSuggestion struct {
	TicketNumber string    `json:"ticketNumber"`
	ClientName   string    `json:"clientName"`
	ClientEmail  string    `json:"clientEmail"`
	Subject      string    `json:"subject"`
	Detail       string    `json:"detail"`
	ImageURL     *string   `json:"imageUrl"`
	ChatID       uuid.UUID `json:"chatId"`
	UserID       uuid.UUID `json:"userId"`
}

// AddMessageResponse is the result of POST /chats/:id/messages.
type AddMessageResponse struct {
	UserMessage      MessageResponse   `json:"userMessage"`
	AIMessage        MessageResponse   `json:"aiMessage"`
	Chat             *ChatResponse     `json:"chat,omitempty"`
	RequiresTicket   bool              `json:"requiresTicket,omitempty"`
	TicketSuggestion *TicketSuggestion `json:"ticketSuggestion,omitempty"`
}

// SuccessResponse acknowledges a mutation without a body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
