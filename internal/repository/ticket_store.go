package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/mailroom/internal/domain"
	"github.com/spec-kit/mailroom/internal/ingest"
)

type ticketStore struct {
	pool *pgxpool.Pool
}

// NewTicketStore builds the postgres-backed ticket store.
func NewTicketStore(pool *pgxpool.Pool) ingest.TicketStore {
	return &ticketStore{pool: pool}
}

func (r *ticketStore) GetTicket(ctx context.Context, id string) (*domain.TicketSnapshot, error) {
	const query = `
        SELECT id, subject, status, submitter_id, submitter_email, submitter_name,
               assignee_id, assignee_email, participant_emails, last_activity_at
        FROM tickets WHERE id=$1`
	var t domain.TicketSnapshot
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Subject,
		&t.Status,
		&t.SubmitterID,
		&t.SubmitterEmail,
		&t.SubmitterName,
		&t.AssigneeID,
		&t.AssigneeEmail,
		&t.ParticipantEmails,
		&t.LastActivityAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AppendReply uses jsonb concatenation so two concurrent appends both land;
// a read-modify-write of the replies array would lose one of them.
func (r *ticketStore) AppendReply(ctx context.Context, id string, reply domain.ReplyRecord) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	const query = `
        UPDATE tickets
        SET replies = replies || $2::jsonb,
            last_activity_at = $3,
            last_activity_by = $4
        WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, payload, reply.CreatedAt, reply.AuthorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticket %s not found", id)
	}
	return nil
}

func (r *ticketStore) ListTicketIDs(ctx context.Context, limit int) ([]string, error) {
	const query = `
        SELECT id FROM tickets ORDER BY last_activity_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
