package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helpdesk_backend/internal/tickets/domain"
	"helpdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketNotFoundMessage is shared by missing, foreign and already-processed
// tickets so callers cannot tell them apart.
const TicketNotFoundMessage = "ticket not found or already processed"

const ticketColumns = `id, ticket_number, user_id, chat_id, client_name, subject, detail,
	priority, status, image_url, admin_note, created_at, updated_at`

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tickets repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	var priority, status string
	err := row.Scan(&t.ID, &t.TicketNumber, &t.UserID, &t.ChatID, &t.ClientName, &t.Subject, &t.Detail,
		&priority, &status, &t.ImageURL, &t.AdminNote, &t.CreatedAt, &t.UpdatedAt)
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	return t, err
}

func ticketOrNotFound(t Ticket, err error, op string) (Ticket, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, apperr.NotFound(TicketNotFoundMessage)
		}
		return Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// CreatePending inserts the suggestion. A concurrent or repeated suggestion
// for the same (user, number) hits the partial unique index and the
// existing pending row is returned instead.
func (r *Repo) CreatePending(ctx context.Context, p CreateParams) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `
		INSERT INTO tickets (ticket_number, user_id, chat_id, client_name, subject, detail, priority, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, ticket_number) WHERE status = 'pending' DO NOTHING
		RETURNING `+ticketColumns,
		p.TicketNumber, p.UserID, p.ChatID, p.ClientName, p.Subject, p.Detail, string(p.Priority), p.ImageURL))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, fmt.Errorf("create pending ticket: %w", err)
	}
	return r.GetPending(ctx, p.TicketNumber, p.UserID)
}

// GetPending returns the caller's pending ticket with the given number.
func (r *Repo) GetPending(ctx context.Context, ticketNumber string, userID uuid.UUID) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE ticket_number = $1 AND user_id = $2 AND status = 'pending'`, ticketNumber, userID))
	return ticketOrNotFound(t, err, "get pending ticket")
}

// MarkConfirmed flips pending to confirmed. Zero rows means another request
// got there first, or the ticket never existed.
func (r *Repo) MarkConfirmed(ctx context.Context, ticketNumber string, userID uuid.UUID) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `
		UPDATE tickets SET status = 'confirmed', updated_at = now()
		WHERE ticket_number = $1 AND user_id = $2 AND status = 'pending'
		RETURNING `+ticketColumns, ticketNumber, userID))
	return ticketOrNotFound(t, err, "confirm ticket")
}

// DeletePending removes a pending ticket.
func (r *Repo) DeletePending(ctx context.Context, ticketNumber string, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM tickets
		WHERE ticket_number = $1 AND user_id = $2 AND status = 'pending'`, ticketNumber, userID)
	if err != nil {
		return fmt.Errorf("delete pending ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(TicketNotFoundMessage)
	}
	return nil
}

// MarkResolved closes a confirmed ticket with an optional admin note.
func (r *Repo) MarkResolved(ctx context.Context, id uuid.UUID, adminNote string) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `
		UPDATE tickets SET status = 'resolved', admin_note = NULLIF($2, ''), updated_at = now()
		WHERE id = $1 AND status = 'confirmed'
		RETURNING `+ticketColumns, id, adminNote))
	return ticketOrNotFound(t, err, "resolve ticket")
}

// DeletePendingBefore removes suggestions created before the cutoff that were
// never confirmed or cancelled.
func (r *Repo) DeletePendingBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete stale pending tickets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetByID returns any ticket by id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	return ticketOrNotFound(t, err, "get ticket")
}

// ListForUser returns the user's tickets, newest first.
func (r *Repo) ListForUser(ctx context.Context, userID uuid.UUID) ([]Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAll returns every ticket, optionally filtered by status.
func (r *Repo) ListAll(ctx context.Context, status *domain.Status) ([]Ticket, error) {
	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}
	return r.list(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY CASE priority WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			created_at DESC`, filter)
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}
