package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/domain"
	"github.com/spec-kit/mailroom/internal/events"
	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

const previewLength = 120

// Result reports a processed content notification.
type Result struct {
	TicketID    string
	SenderEmail string
	ReplyID     string
	Duplicate   bool
}

// Pipeline runs one Received notification end to end: parse, resolve,
// extract, persist attachments, authorize, append, notify. Invocations are
// independent and synchronous; the context deadline is the time budget.
type Pipeline struct {
	tickets     TicketStore
	resolver    *Resolver
	authorizer  *Authorizer
	attachments *AttachmentIngestor
	dedup       DedupStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewPipeline wires the pipeline stages. dedup may be nil, in which case
// duplicate provider deliveries are not suppressed.
func NewPipeline(
	tickets TicketStore,
	resolver *Resolver,
	authorizer *Authorizer,
	attachments *AttachmentIngestor,
	dedup DedupStore,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		tickets:     tickets,
		resolver:    resolver,
		authorizer:  authorizer,
		attachments: attachments,
		dedup:       dedup,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Process handles one inbound email. No partial reply is ever committed:
// either the fully assembled record (with whatever attachments succeeded)
// is appended, or nothing is.
func (p *Pipeline) Process(ctx context.Context, deliveryID string, n *Notification) (*Result, error) {
	if p.alreadyProcessed(ctx, deliveryID) {
		p.logger.Info("duplicate delivery ignored", zap.String("delivery_id", deliveryID))
		return &Result{Duplicate: true}, nil
	}

	msg, err := ParseMessage(n)
	if err != nil {
		return nil, err
	}

	code, ok := ExtractShortID(msg)
	if !ok {
		return nil, apperrors.NewUnresolvableTicket("no ticket short id in recipient or subject")
	}

	ticketID, err := p.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	ticket, err := p.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewDownstreamUnavailable("ticket store", err)
	}
	if ticket == nil {
		return nil, apperrors.NewUnresolvableTicket("resolved ticket no longer exists")
	}

	text, err := ExtractReply(msg)
	if err != nil {
		return nil, err
	}

	stored := p.attachments.Ingest(ctx, ticket.ID, msg.Attachments)

	attribution, err := p.authorizer.Authorize(ctx, ticket, msg.SenderAddress)
	if err != nil {
		return nil, err
	}

	message := text
	if attribution.OriginalSender != "" {
		message = ProvenanceMarker(attribution.OriginalSender) + message
	}

	reply := domain.ReplyRecord{
		ID:             uuid.NewString(),
		AuthorID:       attribution.Author.ID,
		AuthorName:     attribution.Author.DisplayName,
		AuthorEmail:    attribution.Author.Email,
		Message:        message,
		Attachments:    stored,
		CreatedAt:      time.Now().UTC(),
		IsPrivate:      false,
		Source:         domain.ReplySourceEmail,
		OriginalSender: attribution.OriginalSender,
	}

	if err := p.tickets.AppendReply(ctx, ticket.ID, reply); err != nil {
		return nil, apperrors.NewDownstreamUnavailable("ticket store", err)
	}

	p.markProcessed(ctx, deliveryID)

	p.logger.Info("reply appended",
		zap.String("ticket_id", ticket.ID),
		zap.String("reply_id", reply.ID),
		zap.String("author", reply.AuthorEmail),
		zap.Int("attachments_stored", len(stored)),
		zap.Int("attachments_total", len(msg.Attachments)))

	p.publishReplyIngested(ctx, ticket, reply)

	return &Result{
		TicketID:    ticket.ID,
		SenderEmail: msg.SenderAddress,
		ReplyID:     reply.ID,
	}, nil
}

func (p *Pipeline) alreadyProcessed(ctx context.Context, deliveryID string) bool {
	if p.dedup == nil || deliveryID == "" {
		return false
	}
	seen, err := p.dedup.Seen(ctx, deliveryID)
	if err != nil {
		// Dedup is an availability trade-off: an unreachable store degrades
		// to processing, not to dropping mail.
		p.logger.Warn("dedup lookup failed", zap.Error(err))
		return false
	}
	return seen
}

func (p *Pipeline) markProcessed(ctx context.Context, deliveryID string) {
	if p.dedup == nil || deliveryID == "" {
		return
	}
	if err := p.dedup.Mark(ctx, deliveryID); err != nil {
		p.logger.Warn("dedup mark failed", zap.String("delivery_id", deliveryID), zap.Error(err))
	}
}

func (p *Pipeline) publishReplyIngested(ctx context.Context, ticket *domain.TicketSnapshot, reply domain.ReplyRecord) {
	if p.dispatcher == nil {
		return
	}
	preview := reply.Message
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	_ = p.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventReplyIngested,
		TicketID:  ticket.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.ReplyIngestedPayload{
			ReplyID:        reply.ID,
			TicketSubject:  ticket.Subject,
			AuthorName:     reply.AuthorName,
			AuthorEmail:    reply.AuthorEmail,
			AssigneeEmail:  ticket.AssigneeEmail,
			OriginalSender: reply.OriginalSender,
			BodyPreview:    preview,
		},
	})
}
