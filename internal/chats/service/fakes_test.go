package service

import (
	"context"
	"sync"
	"time"

	"helpdesk_backend/internal/chats/repository"
	"helpdesk_backend/internal/gateway"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/apperr"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu       sync.Mutex
	chats    map[uuid.UUID]repository.Chat
	messages []repository.Message
	clock    time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		chats: make(map[uuid.UUID]repository.Chat),
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

var _ repository.Repository = (*memoryRepo)(nil)

func (r *memoryRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memoryRepo) GetChat(_ context.Context, id, userID uuid.UUID) (repository.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok || c.UserID != userID {
		return repository.Chat{}, apperr.NotFound("chat not found")
	}
	return c, nil
}

func (r *memoryRepo) ListChats(_ context.Context, userID uuid.UUID) ([]repository.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Chat, 0)
	for _, c := range r.chats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListMessages(_ context.Context, chatID uuid.UUID) ([]repository.Message, error) {
	return r.messagesOf(chatID, repository.Sender("")), nil
}

func (r *memoryRepo) ListLeadingMessages(_ context.Context, chatIDs []uuid.UUID, perChat int) (map[uuid.UUID][]repository.Message, error) {
	out := make(map[uuid.UUID][]repository.Message)
	for _, id := range chatIDs {
		msgs := r.messagesOf(id, "")
		if len(msgs) > perChat {
			msgs = msgs[:perChat]
		}
		out[id] = msgs
	}
	return out, nil
}

func (r *memoryRepo) ListImageURLs(_ context.Context, chatID uuid.UUID) ([]string, error) {
	var urls []string
	for _, m := range r.messagesOf(chatID, "") {
		if m.ImageURL != nil {
			urls = append(urls, *m.ImageURL)
		}
	}
	return urls, nil
}

func (r *memoryRepo) CreateChat(_ context.Context, userID uuid.UUID, title string) (repository.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.tick()
	c := repository.Chat{ID: uuid.New(), UserID: userID, Title: title, LastActivityAt: now, CreatedAt: now}
	r.chats[c.ID] = c
	return c, nil
}

func (r *memoryRepo) UpdateTitle(_ context.Context, id, userID uuid.UUID, title string) (repository.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok || c.UserID != userID {
		return repository.Chat{}, apperr.NotFound("chat not found")
	}
	c.Title = title
	r.chats[id] = c
	return c, nil
}

func (r *memoryRepo) DeleteChat(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok || c.UserID != userID {
		return apperr.NotFound("chat not found")
	}
	delete(r.chats, id)
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ChatID != id {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *memoryRepo) CreateMessage(_ context.Context, p repository.CreateMessageParams) (repository.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := repository.Message{
		ID: uuid.New(), ChatID: p.ChatID, Content: p.Content, Sender: p.Sender, ImageURL: p.ImageURL, CreatedAt: r.tick(),
	}
	r.messages = append(r.messages, m)
	return m, nil
}

func (r *memoryRepo) RecordActivity(_ context.Context, p repository.ActivityParams) (repository.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.chats[p.ChatID]
	c.LastMessage = p.LastMessage
	c.LastActivityAt = r.tick()
	for _, placeholder := range p.PlaceholderTitles {
		if c.Title == placeholder && p.RenameTo != "" {
			c.Title = p.RenameTo
		}
	}
	r.chats[p.ChatID] = c
	return c, nil
}

func (r *memoryRepo) messagesOf(chatID uuid.UUID, sender repository.Sender) []repository.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Message, 0)
	for _, m := range r.messages {
		if m.ChatID == chatID && (sender == "" || m.Sender == sender) {
			out = append(out, m)
		}
	}
	return out
}

type memoryUsers map[uuid.UUID]usersrepo.User

func (u memoryUsers) GetByID(_ context.Context, id uuid.UUID) (usersrepo.User, error) {
	user, ok := u[id]
	if !ok {
		return usersrepo.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

type stubGateway struct {
	mu      sync.Mutex
	reply   gateway.Reply
	err     error
	calls   []gateway.Request
	ctxErrs []error
}

func (g *stubGateway) Invoke(ctx context.Context, req gateway.Request) (gateway.Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return g.reply, g.err
}

type stubAttachments struct {
	data        []byte
	contentType string
	fetchErr    error
	fetched     []string
	deleted     []string
	deleteErr   error
}

func (a *stubAttachments) Fetch(_ context.Context, rawURL string) ([]byte, string, error) {
	a.fetched = append(a.fetched, rawURL)
	return a.data, a.contentType, a.fetchErr
}

func (a *stubAttachments) Delete(_ context.Context, rawURL string) error {
	a.deleted = append(a.deleted, rawURL)
	return a.deleteErr
}
