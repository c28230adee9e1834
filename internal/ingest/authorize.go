package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/domain"
	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

// Attribution is the identity a reply is recorded under. OriginalSender is
// set when an unauthorized sender's reply fell back to the ticket's original
// submitter; the appended message then carries a provenance marker.
type Attribution struct {
	Author         domain.User
	OriginalSender string
}

// Authorizer decides whose identity a reply is attributed to, and whether it
// may proceed at all.
type Authorizer struct {
	directory UserDirectory
	logger    *zap.Logger
}

// NewAuthorizer constructs the authorizer.
func NewAuthorizer(directory UserDirectory, logger *zap.Logger) *Authorizer {
	return &Authorizer{directory: directory, logger: logger}
}

// Authorize applies the three-tier attribution policy:
//
//  1. Senders in the ticket's authorized set (submitter, participants,
//     assignee) are attributed directly, with a synthesized minimal identity
//     when the directory has no record for them.
//  2. Registered senders holding an elevated role are attributed directly
//     even when not on the ticket.
//  3. Anyone else falls back to the original submitter with OriginalSender
//     recorded; the short code in the reply address is itself the access
//     credential, so a forwarded reply is still legitimate.
//
// Only an unresolvable original submitter rejects the reply outright.
func (a *Authorizer) Authorize(ctx context.Context, ticket *domain.TicketSnapshot, senderEmail string) (*Attribution, error) {
	sender := strings.ToLower(strings.TrimSpace(senderEmail))
	authorized := ticket.AuthorizedSenderEmails()

	if _, ok := authorized[sender]; ok {
		user, err := a.directory.FindUserByEmail(ctx, sender)
		if err != nil {
			return nil, apperrors.NewDownstreamUnavailable("user directory", err)
		}
		if user == nil {
			a.logger.Debug("authorized sender without directory record",
				zap.String("sender", sender), zap.String("ticket_id", ticket.ID))
			synthesized := domain.SynthesizeUser(senderEmail)
			return &Attribution{Author: synthesized}, nil
		}
		return &Attribution{Author: *user}, nil
	}

	user, err := a.directory.FindUserByEmail(ctx, sender)
	if err != nil {
		return nil, apperrors.NewDownstreamUnavailable("user directory", err)
	}
	if user != nil && user.Role.Elevated() {
		return &Attribution{Author: *user}, nil
	}

	submitter, err := a.directory.FindUserByEmail(ctx, strings.ToLower(ticket.SubmitterEmail))
	if err != nil {
		return nil, apperrors.NewDownstreamUnavailable("user directory", err)
	}
	if submitter == nil {
		return nil, apperrors.NewAttributionImpossible(senderEmail)
	}

	a.logger.Info("reply attributed to submitter on behalf of external sender",
		zap.String("sender", sender),
		zap.String("submitter", submitter.Email),
		zap.String("ticket_id", ticket.ID))
	return &Attribution{Author: *submitter, OriginalSender: senderEmail}, nil
}

// ProvenanceMarker is prepended to a reply whose attribution fell back to
// the original submitter, preserving traceability of the actual sender.
func ProvenanceMarker(originalSender string) string {
	return fmt.Sprintf("[Reply received from %s]\n\n", originalSender)
}
