package repository

import (
	"context"
	"errors"
	"fmt"

	"helpdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const chatNotFoundMessage = "chat not found"

const chatColumns = `id, user_id, title, last_message, last_activity_at, created_at`
const messageColumns = `id, chat_id, content, sender, image_url, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new chats repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanChat(row pgx.Row) (Chat, error) {
	var c Chat
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.LastMessage, &c.LastActivityAt, &c.CreatedAt)
	return c, err
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	var sender string
	err := row.Scan(&m.ID, &m.ChatID, &m.Content, &sender, &m.ImageURL, &m.CreatedAt)
	m.Sender = Sender(sender)
	return m, err
}

func chatOrNotFound(c Chat, err error, op string) (Chat, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chat{}, apperr.NotFound(chatNotFoundMessage)
		}
		return Chat{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// GetChat retrieves a chat owned by userID.
func (r *Repo) GetChat(ctx context.Context, id, userID uuid.UUID) (Chat, error) {
	c, err := scanChat(r.pool.QueryRow(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = $1 AND user_id = $2`, id, userID))
	return chatOrNotFound(c, err, "get chat")
}

// ListChats lists the user's chats by recent activity.
func (r *Repo) ListChats(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE user_id = $1 ORDER BY last_activity_at DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// ListMessages lists a chat's messages oldest first.
func (r *Repo) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = $1 ORDER BY created_at ASC, id ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListLeadingMessages loads the first perChat messages for several chats in one query.
func (r *Repo) ListLeadingMessages(ctx context.Context, chatIDs []uuid.UUID, perChat int) (map[uuid.UUID][]Message, error) {
	out := make(map[uuid.UUID][]Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.chat_id, m.content, m.sender, m.image_url, m.created_at
		FROM unnest($1::uuid[]) AS c(id)
		CROSS JOIN LATERAL (
			SELECT `+messageColumns+`
			FROM messages
			WHERE chat_id = c.id
			ORDER BY created_at ASC, id ASC
			LIMIT $2
		) m
		ORDER BY m.chat_id, m.created_at ASC, m.id ASC`, chatIDs, perChat)
	if err != nil {
		return nil, fmt.Errorf("list leading messages: %w", err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		out[m.ChatID] = append(out[m.ChatID], m)
	}
	return out, nil
}

// ListImageURLs returns the image URLs referenced in a chat.
func (r *Repo) ListImageURLs(ctx context.Context, chatID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT image_url FROM messages WHERE chat_id = $1 AND image_url IS NOT NULL`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list image urls: %w", err)
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan image url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// CreateChat inserts a new chat.
func (r *Repo) CreateChat(ctx context.Context, userID uuid.UUID, title string) (Chat, error) {
	c, err := scanChat(r.pool.QueryRow(ctx, `
		INSERT INTO chats (user_id, title)
		VALUES ($1, $2)
		RETURNING `+chatColumns, userID, title))
	if err != nil {
		return Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return c, nil
}

// UpdateTitle renames a chat owned by userID.
func (r *Repo) UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (Chat, error) {
	c, err := scanChat(r.pool.QueryRow(ctx, `
		UPDATE chats SET title = $3
		WHERE id = $1 AND user_id = $2
		RETURNING `+chatColumns, id, userID, title))
	return chatOrNotFound(c, err, "update chat title")
}

// DeleteChat removes a chat owned by userID; messages cascade.
func (r *Repo) DeleteChat(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(chatNotFoundMessage)
	}
	return nil
}

// CreateMessage appends a message to a chat.
func (r *Repo) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	if !params.Sender.Valid() {
		return Message{}, fmt.Errorf("create message: invalid sender %q", params.Sender)
	}
	m, err := scanMessage(r.pool.QueryRow(ctx, `
		INSERT INTO messages (chat_id, content, sender, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+messageColumns,
		params.ChatID, params.Content, string(params.Sender), params.ImageURL))
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

// RecordActivity updates the chat preview and renames a placeholder title.
func (r *Repo) RecordActivity(ctx context.Context, params ActivityParams) (Chat, error) {
	placeholders := params.PlaceholderTitles
	if placeholders == nil {
		placeholders = []string{}
	}
	c, err := scanChat(r.pool.QueryRow(ctx, `
		UPDATE chats
		SET last_message = $2,
			last_activity_at = now(),
			title = CASE WHEN $3::text <> '' AND title = ANY($4::text[]) THEN $3 ELSE title END
		WHERE id = $1
		RETURNING `+chatColumns,
		params.ChatID, params.LastMessage, params.RenameTo, placeholders))
	return chatOrNotFound(c, err, "record chat activity")
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	messages := make([]Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
