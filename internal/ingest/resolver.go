package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/pkg/shortid"
	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

// Resolver recovers a full ticket id from a short code by re-encoding known
// ticket ids. There is no reverse index; the scan is bounded by cap.
type Resolver struct {
	store  TicketStore
	cap    int
	logger *zap.Logger
}

// NewResolver constructs a resolver with the given scan cap.
func NewResolver(store TicketStore, cap int, logger *zap.Logger) *Resolver {
	if cap <= 0 {
		cap = 500
	}
	return &Resolver{store: store, cap: cap, logger: logger}
}

// Resolve returns the ticket id whose short code equals code. Zero matches
// and multiple matches (a tolerated collision) both fail closed rather than
// guess.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	ids, err := r.store.ListTicketIDs(ctx, r.cap)
	if err != nil {
		return "", apperrors.NewDownstreamUnavailable("ticket store", err)
	}

	var matches []string
	for _, id := range ids {
		if shortid.Encode(id) == code {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", apperrors.NewUnresolvableTicket(
			fmt.Sprintf("short id %q matches no ticket within the scan cap", code))
	default:
		r.logger.Warn("short id collision",
			zap.String("short_id", code),
			zap.Strings("ticket_ids", matches))
		return "", apperrors.NewUnresolvableTicket(
			fmt.Sprintf("short id %q is ambiguous (%d tickets)", code, len(matches)))
	}
}
