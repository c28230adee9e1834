package ingest

import (
	"bytes"
	"encoding/base64"
	"net/mail"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"

	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

// ParsedMessage is the decoded view of one inbound email. Derived once per
// notification; immutable afterwards.
type ParsedMessage struct {
	SenderAddress      string
	RecipientAddresses []string
	Subject            string
	PlainBody          string
	HTMLBody           string
	Attachments        []AttachmentPart
}

// AttachmentPart is one extracted attachment prior to persistence.
type AttachmentPart struct {
	Filename    string
	ContentType string
	Content     []byte
}

// actionTypeInline is the receipt action whose content the provider inlines
// into the notification. Anything else points at out-of-line storage, which
// this pipeline does not retrieve.
const actionTypeInline = "SNS"

// ParseMessage decodes the raw message carried by a Received notification.
func ParseMessage(n *Notification) (*ParsedMessage, error) {
	if t := n.Receipt.Action.Type; t != "" && !strings.EqualFold(t, actionTypeInline) {
		return nil, apperrors.NewUnsupportedStorageMode(t)
	}
	if strings.TrimSpace(n.Content) == "" {
		return nil, apperrors.NewValidationError("notification carries no message content", nil)
	}

	raw := decodeContent(n.Content)
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewValidationError("unable to parse message content", map[string]any{
			"reason": err.Error(),
		})
	}

	msg := &ParsedMessage{
		SenderAddress: senderAddress(n, env),
		Subject:       subjectLine(n, env),
		PlainBody:     env.Text,
		HTMLBody:      env.HTML,
	}
	msg.RecipientAddresses = recipientAddresses(n, env)

	for _, part := range env.Attachments {
		msg.Attachments = append(msg.Attachments, AttachmentPart{
			Filename:    part.FileName,
			ContentType: part.ContentType,
			Content:     part.Content,
		})
	}
	return msg, nil
}

// decodeContent handles providers that base64-encode the raw message. Content
// that does not decode is treated as already-raw RFC822 text.
func decodeContent(content string) []byte {
	trimmed := strings.TrimSpace(content)
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(content)
}

func senderAddress(n *Notification, env *enmime.Envelope) string {
	if n.Mail.Source != "" {
		return normalizeAddress(n.Mail.Source)
	}
	if len(n.Mail.CommonHeaders.From) > 0 {
		return normalizeAddress(n.Mail.CommonHeaders.From[0])
	}
	return normalizeAddress(env.GetHeader("From"))
}

func subjectLine(n *Notification, env *enmime.Envelope) string {
	if n.Mail.CommonHeaders.Subject != "" {
		return n.Mail.CommonHeaders.Subject
	}
	return env.GetHeader("Subject")
}

func recipientAddresses(n *Notification, env *enmime.Envelope) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(raw string) {
		addr := normalizeAddress(raw)
		if addr == "" {
			return
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	for _, d := range n.Mail.Destination {
		add(d)
	}
	for _, d := range n.Mail.CommonHeaders.To {
		add(d)
	}
	if header := env.GetHeader("To"); header != "" {
		if addrs, err := mail.ParseAddressList(header); err == nil {
			for _, a := range addrs {
				add(a.Address)
			}
		}
	}
	return out
}

// normalizeAddress reduces "Name <addr@host>" forms to the bare address.
func normalizeAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return addr.Address
	}
	return raw
}

var (
	recipientShortIDPattern = regexp.MustCompile(`(?i)ticket-([A-Za-z0-9]{6})-reply@`)
	subjectShortIDPattern   = regexp.MustCompile(`(?i)\[TICKET-([A-Za-z0-9]{6})\]`)
)

// ExtractShortID finds the ticket short code: the recipient address pattern
// wins, the bracketed subject marker is the fallback. The code itself is
// returned with its original casing since short ids are case sensitive.
func ExtractShortID(msg *ParsedMessage) (string, bool) {
	for _, addr := range msg.RecipientAddresses {
		if m := recipientShortIDPattern.FindStringSubmatch(addr); m != nil {
			return m[1], true
		}
	}
	if m := subjectShortIDPattern.FindStringSubmatch(msg.Subject); m != nil {
		return m[1], true
	}
	return "", false
}
