package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/config"
	"github.com/spec-kit/mailroom/internal/events"
	"github.com/spec-kit/mailroom/internal/ingest"
	"github.com/spec-kit/mailroom/pkg/shortid"
)

// NotificationService turns reply-ingested events into owner notifications.
// Delivery failures are logged and never propagate; the reply is already
// durably recorded by the time this runs.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   ingest.Notifier
	logger     *zap.Logger
	cfg        config.IngestConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier ingest.Notifier, logger *zap.Logger, cfg config.IngestConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReplyIngested, n.handleReplyIngested)
}

func (n *NotificationService) handleReplyIngested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReplyIngestedPayload)
	if !ok {
		n.logger.Warn("unexpected payload type for reply_ingested event",
			zap.String("ticket_id", event.TicketID))
		return nil
	}

	recipient := n.ownerRecipient(payload)
	if recipient == "" {
		n.logger.Debug("no notification recipient for ticket",
			zap.String("ticket_id", event.TicketID))
		return nil
	}
	if strings.EqualFold(recipient, payload.AuthorEmail) {
		// Don't notify someone of their own reply.
		n.logger.Debug("notification suppressed for reply author",
			zap.String("ticket_id", event.TicketID),
			zap.String("recipient", recipient))
		return nil
	}

	subject := fmt.Sprintf("New reply on ticket %s", event.TicketID)
	if payload.TicketSubject != "" {
		subject = fmt.Sprintf("New reply on ticket: %s", payload.TicketSubject)
	}
	body := fmt.Sprintf("%s <%s> replied:\n\n%s\n", payload.AuthorName, payload.AuthorEmail, payload.BodyPreview)
	if payload.OriginalSender != "" {
		body = fmt.Sprintf("%s (forwarded by %s) replied:\n\n%s\n",
			payload.AuthorName, payload.OriginalSender, payload.BodyPreview)
	}
	if n.cfg.MailDomain != "" {
		body += fmt.Sprintf("\nReply to ticket-%s-reply@%s to respond on this ticket.\n",
			shortid.Encode(event.TicketID), n.cfg.MailDomain)
	}

	if err := n.notifier.Notify(ctx, recipient, subject, body); err != nil {
		n.logger.Warn("owner notification failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
	return nil
}

// ownerRecipient resolves the ticket's owner: assignee if present, else the
// configured fallback recipient.
func (n *NotificationService) ownerRecipient(payload events.ReplyIngestedPayload) string {
	if payload.AssigneeEmail != nil && *payload.AssigneeEmail != "" {
		return *payload.AssigneeEmail
	}
	return n.cfg.FallbackNotifyEmail
}
