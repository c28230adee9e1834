package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/mailroom/internal/domain"
	"github.com/spec-kit/mailroom/internal/ingest"
)

type userDirectory struct {
	pool *pgxpool.Pool
}

// NewUserDirectory builds the postgres-backed user directory.
func NewUserDirectory(pool *pgxpool.Pool) ingest.UserDirectory {
	return &userDirectory{pool: pool}
}

func (r *userDirectory) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, display_name, email, role
        FROM users WHERE lower(email) = lower($1)`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.DisplayName,
		&u.Email,
		&u.Role,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
