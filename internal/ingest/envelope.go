package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

// HeaderMessageType is the provider header carrying the envelope type
// discriminator. The JSON Type field is the fallback when the header is
// absent.
const HeaderMessageType = "x-amz-sns-message-type"

const (
	envelopeSubscribe    = "SubscriptionConfirmation"
	envelopeUnsubscribe  = "UnsubscribeConfirmation"
	envelopeNotification = "Notification"
)

const (
	notificationReceived  = "Received"
	notificationBounce    = "Bounce"
	notificationComplaint = "Complaint"
)

// Envelope is the outer provider callback payload. Transient; never
// persisted.
type Envelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicArn     string `json:"TopicArn"`
	Subject      string `json:"Subject"`
	Message      string `json:"Message"`
	SubscribeURL string `json:"SubscribeURL"`
	Timestamp    string `json:"Timestamp"`
}

// Notification is the inner content payload of a Notification envelope.
type Notification struct {
	NotificationType string   `json:"notificationType"`
	Mail             MailMeta `json:"mail"`
	Receipt          Receipt  `json:"receipt"`
	// Content holds the raw message, base64-encoded, when the receipt
	// action stored it inline.
	Content string `json:"content"`
}

// MailMeta is the provider's summary of the received email.
type MailMeta struct {
	MessageID     string        `json:"messageId"`
	Source        string        `json:"source"`
	Destination   []string      `json:"destination"`
	CommonHeaders CommonHeaders `json:"commonHeaders"`
}

// CommonHeaders carries pre-parsed header values from the provider.
type CommonHeaders struct {
	From    []string `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
}

// Receipt describes what the provider did with the message.
type Receipt struct {
	Action ReceiptAction `json:"action"`
}

// ReceiptAction identifies inline vs out-of-line content storage.
type ReceiptAction struct {
	Type       string `json:"type"`
	TopicArn   string `json:"topicArn"`
	BucketName string `json:"bucketName"`
	ObjectKey  string `json:"objectKey"`
}

// Outcome is what the router reports back to the HTTP handler on the
// acknowledge path.
type Outcome struct {
	Message     string
	TicketID    string
	SenderEmail string
}

// Router classifies inbound provider callbacks and dispatches them. All work
// is synchronous; the caller's context deadline is the time budget.
type Router struct {
	pipeline   *Pipeline
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRouter constructs the router. httpClient is used for the one-time
// subscription handshake GET and should carry a short timeout.
func NewRouter(pipeline *Pipeline, httpClient *http.Client, logger *zap.Logger) *Router {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Router{pipeline: pipeline, httpClient: httpClient, logger: logger}
}

// Route handles one provider callback. headerType is the value of the
// envelope-type header, possibly empty. Handshake, bounce, complaint and
// unknown envelopes always produce a success Outcome; only content
// notifications can fail.
func (r *Router) Route(ctx context.Context, headerType string, body []byte) (*Outcome, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.NewValidationError("malformed provider envelope", nil)
	}

	envType := headerType
	if envType == "" {
		envType = env.Type
	}

	switch envType {
	case envelopeSubscribe:
		r.confirmSubscription(ctx, env.SubscribeURL)
		return &Outcome{Message: "subscription confirmed"}, nil
	case envelopeUnsubscribe:
		r.logger.Info("subscription cancelled", zap.String("topic", env.TopicArn))
		return &Outcome{Message: "unsubscribe acknowledged"}, nil
	case envelopeNotification:
		return r.routeNotification(ctx, &env)
	default:
		r.logger.Warn("unhandled envelope type", zap.String("type", envType))
		return &Outcome{Message: "unhandled envelope type acknowledged"}, nil
	}
}

func (r *Router) routeNotification(ctx context.Context, env *Envelope) (*Outcome, error) {
	notification, err := decodeNotification(env.Message)
	if err != nil {
		return nil, apperrors.NewValidationError("malformed notification payload", nil)
	}

	switch notification.NotificationType {
	case notificationBounce, notificationComplaint:
		// No retries, no ticket mutation.
		r.logger.Info("delivery report acknowledged",
			zap.String("kind", notification.NotificationType),
			zap.String("source", notification.Mail.Source))
		return &Outcome{Message: strings.ToLower(notification.NotificationType) + " acknowledged"}, nil
	case notificationReceived:
		result, err := r.pipeline.Process(ctx, deliveryID(env, notification), notification)
		if err != nil {
			return nil, err
		}
		if result.Duplicate {
			return &Outcome{Message: "duplicate delivery ignored"}, nil
		}
		return &Outcome{
			Message:     "reply appended",
			TicketID:    result.TicketID,
			SenderEmail: result.SenderEmail,
		}, nil
	default:
		r.logger.Warn("unhandled notification kind", zap.String("kind", notification.NotificationType))
		return &Outcome{Message: "unhandled notification acknowledged"}, nil
	}
}

// confirmSubscription completes the publish/subscribe handshake. This is a
// one-time administrative action; failures are logged, never surfaced.
func (r *Router) confirmSubscription(ctx context.Context, subscribeURL string) {
	if subscribeURL == "" {
		r.logger.Warn("subscription confirmation without subscribe URL")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subscribeURL, nil)
	if err != nil {
		r.logger.Error("handshake request build failed", zap.Error(err))
		return
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("handshake GET failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	r.logger.Info("subscription handshake completed", zap.Int("status", resp.StatusCode))
}

// decodeNotification tolerates the inner payload arriving either as a JSON
// object or double-encoded as a JSON string.
func decodeNotification(message string) (*Notification, error) {
	raw := strings.TrimSpace(message)
	if raw == "" {
		return nil, errors.New("empty notification message")
	}
	if strings.HasPrefix(raw, "\"") {
		var unquoted string
		if err := json.Unmarshal([]byte(raw), &unquoted); err != nil {
			return nil, err
		}
		raw = unquoted
	}
	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// deliveryID picks the identifier used for duplicate-delivery suppression:
// the provider's per-email message id when present, else the envelope id.
func deliveryID(env *Envelope, n *Notification) string {
	if n.Mail.MessageID != "" {
		return n.Mail.MessageID
	}
	return env.MessageID
}
