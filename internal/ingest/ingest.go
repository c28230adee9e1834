// Package ingest implements the inbound-email-to-ticket-reply pipeline:
// provider envelope routing, MIME parsing, reply extraction, sender
// attribution, attachment persistence and the final reply append.
package ingest

import (
	"context"

	"github.com/spec-kit/mailroom/internal/domain"
)

// TicketStore is the narrow view of the external ticket document store.
type TicketStore interface {
	// GetTicket returns the snapshot for id, or nil when the ticket does
	// not exist.
	GetTicket(ctx context.Context, id string) (*domain.TicketSnapshot, error)
	// AppendReply atomically appends the record to the ticket's reply
	// sequence and updates last-activity metadata. Implementations must use
	// an atomic array-append primitive, not read-modify-write, so two
	// concurrent replies never lose an update.
	AppendReply(ctx context.Context, id string, reply domain.ReplyRecord) error
	// ListTicketIDs returns up to limit known ticket identifiers for the
	// short-id resolution scan.
	ListTicketIDs(ctx context.Context, limit int) ([]string, error)
}

// UserDirectory looks up directory identities by email address.
type UserDirectory interface {
	// FindUserByEmail returns (nil, nil) when no record exists.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ObjectStore persists attachment binaries and returns a public URL.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Notifier delivers owner notifications. Failures are logged by callers and
// never roll back the reply append.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// DedupStore remembers provider delivery identifiers so a re-delivered
// callback becomes a no-op success instead of a duplicate reply.
type DedupStore interface {
	// Seen reports whether the id was already processed.
	Seen(ctx context.Context, messageID string) (bool, error)
	// Mark records the id after a successful append.
	Mark(ctx context.Context, messageID string) error
}
