// Package repository reads user identities. Users are provisioned by the
// identity provider that issues tokens; this service never writes them.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helpdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userNotFoundMessage = "user not found"

// User is the read model of an account.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Reader provides read operations for users.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// Repo implements Reader with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new users repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Reader = (*Repo)(nil)

// GetByID returns the user or apperr.NotFound.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, display_name, email, role, created_at
		FROM users
		WHERE id = $1`, id,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}
