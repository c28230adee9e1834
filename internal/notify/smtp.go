// Package notify delivers best-effort owner notifications for ingested
// replies.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/config"
)

// SMTPNotifier sends notification mail through a plain SMTP relay.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier constructs the notifier.
func NewSMTPNotifier(cfg config.SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Notify sends one plain-text message. The context is accepted for interface
// symmetry; net/smtp does not support cancellation mid-send.
func (n *SMTPNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	if n.cfg.Host == "" {
		n.logger.Debug("smtp not configured; notification skipped",
			zap.String("recipient", recipient))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var headers strings.Builder
	headers.WriteString(fmt.Sprintf("From: %s\r\n", n.cfg.From))
	headers.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	headers.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	headers.WriteString("MIME-Version: 1.0\r\n")
	headers.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	headers.WriteString("\r\n")
	headers.WriteString(body)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", n.cfg.Host, n.cfg.Port)
	return n.send(addr, auth, n.cfg.From, []string{recipient}, []byte(headers.String()))
}
