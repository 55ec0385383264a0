// Package service coordinates a chat turn: persist the user's message, ask
// the automation endpoint, persist its reply.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"helpdesk_backend/internal/chats/repository"
	"helpdesk_backend/internal/chats/transport"
	"helpdesk_backend/internal/gateway"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/apperr"
	"helpdesk_backend/platform/logger"
	"helpdesk_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	// DefaultImagePrompt replaces empty content when only an image is sent.
	DefaultImagePrompt = "Analyze this image."

	subjectMaxRunes  = 100
	titleMaxRunes    = 100
	previewMessages  = 10
	ticketNumberBase = "TKT-"

	// maxTicketNumberRunes matches the limit on the confirm request.
	maxTicketNumberRunes = 64

	msgContentRequired = "message content is required"
	msgInvalidImageURL = "imageUrl must be an absolute http(s) URL"
)

// PlaceholderTitles are the titles a chat carries until its first reply.
var PlaceholderTitles = []string{"Cargando...", "Loading..."}

// Gateway invokes the automation endpoint.
type Gateway interface {
	Invoke(ctx context.Context, req gateway.Request) (gateway.Reply, error)
}

// Attachments fetches stored images and removes them.
type Attachments interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
	Delete(ctx context.Context, rawURL string) error
}

// Service provides business logic for chats.
type Service struct {
	repo        repository.Repository
	users       usersrepo.Reader
	gateway     Gateway
	attachments Attachments
	log         *logger.Logger
	now         func() time.Time
}

// New creates a new chats service.
func New(repo repository.Repository, users usersrepo.Reader, gw Gateway, attachments Attachments, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		gateway:     gw,
		attachments: attachments,
		log:         log,
		now:         time.Now,
	}
}

// AddMessageInput is one user turn.
type AddMessageInput struct {
	ChatID   uuid.UUID
	UserID   uuid.UUID
	Content  string
	ImageURL string
}

// AddMessage runs one turn. The user's message is committed before the
// gateway is called and survives any later failure; the AI message exists
// only when the gateway answered. The gateway call is detached from ctx's
// cancellation so a client disconnect does not lose the reply.
func (s *Service) AddMessage(ctx context.Context, in AddMessageInput) (transport.AddMessageResponse, error) {
	content := strings.TrimSpace(in.Content)
	imageURL := strings.TrimSpace(in.ImageURL)
	if content == "" && imageURL == "" {
		return transport.AddMessageResponse{}, apperr.Validation(msgContentRequired)
	}
	if imageURL != "" && !isHTTPURL(imageURL) {
		return transport.AddMessageResponse{}, apperr.Validation(msgInvalidImageURL)
	}
	if content == "" {
		content = DefaultImagePrompt
	}

	chat, err := s.repo.GetChat(ctx, in.ChatID, in.UserID)
	if err != nil {
		return transport.AddMessageResponse{}, err
	}
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return transport.AddMessageResponse{}, err
	}

	userMsg, err := s.repo.CreateMessage(ctx, repository.CreateMessageParams{
		ChatID:   chat.ID,
		Content:  content,
		Sender:   repository.SenderUser,
		ImageURL: optional(imageURL),
	})
	if err != nil {
		return transport.AddMessageResponse{}, err
	}

	work := context.WithoutCancel(ctx)
	log := s.log.WithContext(ctx)

	req, err := s.buildRequest(work, chat, user, content, imageURL)
	if err != nil {
		log.Error("attachment fetch failed", "chat_id", chat.ID, "error", apperr.Describe(err))
		return transport.AddMessageResponse{}, userFacing(err)
	}

	reply, err := s.gateway.Invoke(work, req)
	if err != nil {
		log.Error("automation reply failed", "chat_id", chat.ID, "error", apperr.Describe(err))
		return transport.AddMessageResponse{}, userFacing(err)
	}

	aiMsg, err := s.repo.CreateMessage(work, repository.CreateMessageParams{
		ChatID:  chat.ID,
		Content: reply.ReplyText(),
		Sender:  repository.SenderAI,
	})
	if err != nil {
		return transport.AddMessageResponse{}, err
	}

	updated, err := s.repo.RecordActivity(work, repository.ActivityParams{
		ChatID:            chat.ID,
		LastMessage:       aiMsg.Content,
		RenameTo:          sanitize.Title(content, titleMaxRunes),
		PlaceholderTitles: PlaceholderTitles,
	})
	if err != nil {
		return transport.AddMessageResponse{}, err
	}

	chatResp := toChatResponse(updated, nil)
	result := transport.AddMessageResponse{
		UserMessage: toMessageResponse(userMsg),
		AIMessage:   toMessageResponse(aiMsg),
		Chat:        &chatResp,
	}

	if ticket, ok := reply.(gateway.TicketReply); ok {
		result.RequiresTicket = true
		result.TicketSuggestion = s.suggestion(ticket, user, chat.ID, content, imageURL)
		log.Info("ticket suggested", "chat_id", chat.ID, "ticket_number", result.TicketSuggestion.TicketNumber)
	}

	return result, nil
}

func (s *Service) buildRequest(ctx context.Context, chat repository.Chat, user usersrepo.User, content, imageURL string) (gateway.Request, error) {
	if imageURL == "" {
		return gateway.TextRequest{
			Message:     content,
			UserID:      user.ID.String(),
			ChatID:      chat.ID.String(),
			DisplayName: user.DisplayName,
		}, nil
	}

	data, contentType, err := s.attachments.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return gateway.ImageRequest{
		Message:          content,
		UserID:           user.ID.String(),
		ChatID:           chat.ID.String(),
		DisplayName:      user.DisplayName,
		Image:            data,
		ImageContentType: contentType,
	}, nil
}

func (s *Service) suggestion(t gateway.TicketReply, user usersrepo.User, chatID uuid.UUID, content, imageURL string) *transport.TicketSuggestion {
	number := strings.TrimSpace(t.TicketID)
	if number == "" || utf8.RuneCountInString(number) > maxTicketNumberRunes {
		number = fmt.Sprintf("%s%d", ticketNumberBase, s.now().UnixMilli())
	}
	clientName := t.ClientName
	if clientName == "" {
		clientName = user.DisplayName
	}
	image := t.ImageURL
	if image == "" {
		image = imageURL
	}
	return &transport.TicketSuggestion{
		TicketNumber: number,
		ClientName:   clientName,
		ClientEmail:  user.Email,
		Subject:      sanitize.Title(content, subjectMaxRunes),
		Detail:       content,
		ImageURL:     optional(image),
		ChatID:       chatID,
		UserID:       user.ID,
	}
}

// userFacing keeps the kind of a relay or gateway failure and replaces its
// message with one of the two fixed strings.
func userFacing(err error) error {
	switch apperr.GetKind(err) {
	case apperr.KindGatewayTimeout:
		return apperr.Wrap(apperr.KindGatewayTimeout, gateway.MsgImageTimeout, err).WithOp("chats.AddMessage")
	case apperr.KindGateway, apperr.KindStorage:
		return apperr.Wrap(apperr.GetKind(err), gateway.MsgFailure, err).WithOp("chats.AddMessage")
	default:
		return apperr.Wrap(apperr.KindGateway, gateway.MsgFailure, err).WithOp("chats.AddMessage")
	}
}

// CreateChat starts a conversation. An empty title becomes the placeholder.
func (s *Service) CreateChat(ctx context.Context, userID uuid.UUID, req transport.CreateChatRequest) (transport.ChatResponse, error) {
	title := sanitize.Title(req.Title, titleMaxRunes)
	if title == "" {
		title = PlaceholderTitles[0]
	}
	chat, err := s.repo.CreateChat(ctx, userID, title)
	if err != nil {
		return transport.ChatResponse{}, err
	}
	s.log.WithContext(ctx).Info("chat created", "chat_id", chat.ID)
	return toChatResponse(chat, nil), nil
}

// ListChats returns the user's chats with their first messages.
func (s *Service) ListChats(ctx context.Context, userID uuid.UUID) ([]transport.ChatResponse, error) {
	chats, err := s.repo.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
	}
	leading, err := s.repo.ListLeadingMessages(ctx, ids, previewMessages)
	if err != nil {
		return nil, err
	}

	out := make([]transport.ChatResponse, len(chats))
	for i, c := range chats {
		out[i] = toChatResponse(c, leading[c.ID])
	}
	return out, nil
}

// GetChat returns a chat with its full history.
func (s *Service) GetChat(ctx context.Context, chatID, userID uuid.UUID) (transport.ChatResponse, error) {
	chat, err := s.repo.GetChat(ctx, chatID, userID)
	if err != nil {
		return transport.ChatResponse{}, err
	}
	messages, err := s.repo.ListMessages(ctx, chat.ID)
	if err != nil {
		return transport.ChatResponse{}, err
	}
	return toChatResponse(chat, messages), nil
}

// ListMessages returns a chat's history in conversation order.
func (s *Service) ListMessages(ctx context.Context, chatID, userID uuid.UUID) ([]transport.MessageResponse, error) {
	if _, err := s.repo.GetChat(ctx, chatID, userID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return toMessageResponses(messages), nil
}

// UpdateTitle renames a chat.
func (s *Service) UpdateTitle(ctx context.Context, chatID, userID uuid.UUID, req transport.UpdateTitleRequest) (transport.ChatResponse, error) {
	title := sanitize.Title(req.Title, titleMaxRunes)
	if title == "" {
		return transport.ChatResponse{}, apperr.Validation("title is required")
	}
	chat, err := s.repo.UpdateTitle(ctx, chatID, userID, title)
	if err != nil {
		return transport.ChatResponse{}, err
	}
	return toChatResponse(chat, nil), nil
}

// DeleteChat removes a chat and its messages, then removes the images they
// referenced. Image cleanup failures are logged and do not fail the call.
func (s *Service) DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error {
	if _, err := s.repo.GetChat(ctx, chatID, userID); err != nil {
		return err
	}
	images, err := s.repo.ListImageURLs(ctx, chatID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteChat(ctx, chatID, userID); err != nil {
		return err
	}

	log := s.log.WithContext(ctx)
	cleanup := context.WithoutCancel(ctx)
	for _, u := range images {
		if err := s.attachments.Delete(cleanup, u); err != nil {
			log.Warn("chat image cleanup failed", "chat_id", chatID, "error", apperr.Describe(err))
		}
	}
	log.Info("chat deleted", "chat_id", chatID, "images", len(images))
	return nil
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Content:   m.Content,
		Sender:    string(m.Sender),
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
	}
}

func toMessageResponses(messages []repository.Message) []transport.MessageResponse {
	out := make([]transport.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = toMessageResponse(m)
	}
	return out
}

func toChatResponse(c repository.Chat, messages []repository.Message) transport.ChatResponse {
	resp := transport.ChatResponse{
		ID:             c.ID,
		Title:          c.Title,
		LastMessage:    c.LastMessage,
		LastActivityAt: c.LastActivityAt,
		CreatedAt:      c.CreatedAt,
	}
	if messages != nil {
		resp.Messages = toMessageResponses(messages)
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
