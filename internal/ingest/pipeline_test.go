package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/domain"
	"github.com/spec-kit/mailroom/internal/events"
	"github.com/spec-kit/mailroom/pkg/shortid"
	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

func buildRawMessage(from, to, subject, body string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
		"",
	}, "\r\n")
}

func notificationForTicket(ticketID, sender, body string) *Notification {
	recipient := "ticket-" + shortid.Encode(ticketID) + "-reply@mail.example.com"
	raw := buildRawMessage(sender, recipient, "Re: help", body)
	return &Notification{
		NotificationType: "Received",
		Mail: MailMeta{
			MessageID:   "msg-" + ticketID,
			Source:      sender,
			Destination: []string{recipient},
			CommonHeaders: CommonHeaders{
				Subject: "Re: help",
				To:      []string{recipient},
			},
		},
		Receipt: Receipt{Action: ReceiptAction{Type: "SNS"}},
		Content: base64.StdEncoding.EncodeToString([]byte(raw)),
	}
}

type pipelineFixture struct {
	store      *fakeTicketStore
	directory  *fakeDirectory
	objects    *fakeObjectStore
	dedup      *fakeDedup
	dispatcher events.Dispatcher
	published  *[]events.Event
	pipeline   *Pipeline
}

func newPipelineFixture(t *testing.T, tickets []*domain.TicketSnapshot, users []domain.User) *pipelineFixture {
	t.Helper()
	logger := zap.NewNop()
	store := newFakeTicketStore(tickets...)
	directory := newFakeDirectory(users...)
	objects := newFakeObjectStore()
	dedupStore := newFakeDedup()

	var published []events.Event
	dispatcher := events.NewInMemoryDispatcher(logger)
	dispatcher.Subscribe(events.EventReplyIngested, func(ctx context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	pipeline := NewPipeline(
		store,
		NewResolver(store, 500, logger),
		NewAuthorizer(directory, logger),
		NewAttachmentIngestor(objects, logger),
		dedupStore,
		dispatcher,
		logger,
	)
	return &pipelineFixture{
		store:      store,
		directory:  directory,
		objects:    objects,
		dedup:      dedupStore,
		dispatcher: dispatcher,
		published:  &published,
		pipeline:   pipeline,
	}
}

func TestPipelineHappyPath(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t,
		[]*domain.TicketSnapshot{ticket},
		[]domain.User{{ID: "u-cc", DisplayName: "Carbon Copy", Email: "cc@example.com", Role: domain.RoleUser}},
	)

	n := notificationForTicket(ticket.ID, "cc@example.com", "Thanks, that fixed it!")
	result, err := fx.pipeline.Process(context.Background(), "delivery-1", n)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, result.TicketID)
	assert.Equal(t, "cc@example.com", result.SenderEmail)
	assert.False(t, result.Duplicate)

	replies := fx.store.replies[ticket.ID]
	require.Len(t, replies, 1)
	reply := replies[0]
	assert.Equal(t, "Thanks, that fixed it!", reply.Message)
	assert.Equal(t, "u-cc", reply.AuthorID)
	assert.False(t, reply.IsPrivate)
	assert.Equal(t, domain.ReplySourceEmail, reply.Source)
	assert.Empty(t, reply.OriginalSender)

	require.Len(t, *fx.published, 1)
	assert.Equal(t, events.EventReplyIngested, (*fx.published)[0].Type)
}

func TestPipelineDuplicateDeliveryIsNoOp(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t, []*domain.TicketSnapshot{ticket}, nil)

	n := notificationForTicket(ticket.ID, "cc@example.com", "First delivery.")
	_, err := fx.pipeline.Process(context.Background(), "delivery-dup", n)
	require.NoError(t, err)

	result, err := fx.pipeline.Process(context.Background(), "delivery-dup", n)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Len(t, fx.store.replies[ticket.ID], 1)
}

func TestPipelineDedupOutageDegradesToProcessing(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t, []*domain.TicketSnapshot{ticket}, nil)
	fx.dedup.err = errors.New("redis down")

	n := notificationForTicket(ticket.ID, "cc@example.com", "Still processed.")
	result, err := fx.pipeline.Process(context.Background(), "delivery-x", n)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Len(t, fx.store.replies[ticket.ID], 1)
}

func TestPipelineNoShortID(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t, []*domain.TicketSnapshot{ticket}, nil)

	raw := buildRawMessage("cc@example.com", "support@example.com", "no marker here", "Hello.")
	n := &Notification{
		NotificationType: "Received",
		Mail: MailMeta{
			Source:        "cc@example.com",
			Destination:   []string{"support@example.com"},
			CommonHeaders: CommonHeaders{Subject: "no marker here"},
		},
		Receipt: Receipt{Action: ReceiptAction{Type: "SNS"}},
		Content: base64.StdEncoding.EncodeToString([]byte(raw)),
	}
	_, err := fx.pipeline.Process(context.Background(), "delivery-n", n)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnresolvableTicket))
}

func TestPipelineEmptyContentRejected(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t, []*domain.TicketSnapshot{ticket}, nil)

	n := notificationForTicket(ticket.ID, "cc@example.com", "> only quoted text\n> nothing new")
	_, err := fx.pipeline.Process(context.Background(), "delivery-e", n)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmptyContent))
	assert.Empty(t, fx.store.replies[ticket.ID])
}

func TestPipelineProvenanceFallback(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t,
		[]*domain.TicketSnapshot{ticket},
		[]domain.User{{ID: "u-sub", DisplayName: "Sub Mitter", Email: "submitter@example.com", Role: domain.RoleUser}},
	)

	n := notificationForTicket(ticket.ID, "forwarder@elsewhere.com", "Forwarding this on behalf of my colleague.")
	result, err := fx.pipeline.Process(context.Background(), "delivery-f", n)
	require.NoError(t, err)

	replies := fx.store.replies[result.TicketID]
	require.Len(t, replies, 1)
	assert.Equal(t, "u-sub", replies[0].AuthorID)
	assert.Equal(t, "forwarder@elsewhere.com", replies[0].OriginalSender)
	assert.True(t, strings.HasPrefix(replies[0].Message, ProvenanceMarker("forwarder@elsewhere.com")))
	assert.Contains(t, replies[0].Message, "Forwarding this on behalf of my colleague.")
}

func TestPipelineAppendFailureSurfacesAndSkipsDedupMark(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t, []*domain.TicketSnapshot{ticket}, nil)
	fx.store.appendErr = errors.New("write conflict")

	n := notificationForTicket(ticket.ID, "cc@example.com", "Should not be recorded.")
	_, err := fx.pipeline.Process(context.Background(), "delivery-a", n)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDownstreamUnavailable))

	// The provider must be able to retry: the delivery id stays unmarked.
	seen, _ := fx.dedup.Seen(context.Background(), "delivery-a")
	assert.False(t, seen)
	assert.Empty(t, *fx.published)
}

func TestPipelineAttachmentIsolation(t *testing.T) {
	ticket := authTicket()
	fx := newPipelineFixture(t, []*domain.TicketSnapshot{ticket}, nil)
	fx.objects.failNth[2] = errStorageDown

	recipient := "ticket-" + shortid.Encode(ticket.ID) + "-reply@mail.example.com"
	boundary := "XPIPEX"
	var sb strings.Builder
	sb.WriteString("From: cc@example.com\r\n")
	sb.WriteString("To: " + recipient + "\r\n")
	sb.WriteString("Subject: Re: help\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: multipart/mixed; boundary=\"" + boundary + "\"\r\n\r\n")
	sb.WriteString("--" + boundary + "\r\nContent-Type: text/plain\r\n\r\nSee attached logs.\r\n")
	for _, name := range []string{"one.log", "two.log", "three.log"} {
		sb.WriteString("--" + boundary + "\r\n")
		sb.WriteString("Content-Type: text/plain\r\n")
		sb.WriteString("Content-Disposition: attachment; filename=\"" + name + "\"\r\n\r\n")
		sb.WriteString("log data\r\n")
	}
	sb.WriteString("--" + boundary + "--\r\n")

	n := &Notification{
		NotificationType: "Received",
		Mail: MailMeta{
			Source:        "cc@example.com",
			Destination:   []string{recipient},
			CommonHeaders: CommonHeaders{Subject: "Re: help"},
		},
		Receipt: Receipt{Action: ReceiptAction{Type: "SNS"}},
		Content: base64.StdEncoding.EncodeToString([]byte(sb.String())),
	}

	result, err := fx.pipeline.Process(context.Background(), "delivery-att", n)
	require.NoError(t, err)

	replies := fx.store.replies[result.TicketID]
	require.Len(t, replies, 1)
	assert.Len(t, replies[0].Attachments, 2)
}
