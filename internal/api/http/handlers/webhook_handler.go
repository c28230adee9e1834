package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mailroom/internal/api/dto"
	"github.com/spec-kit/mailroom/internal/ingest"
)

// WebhookHandler receives inbound email callbacks from the mail provider.
type WebhookHandler struct {
	router *ingest.Router
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(router *ingest.Router) *WebhookHandler {
	return &WebhookHandler{router: router}
}

// InboundEmail POST /webhooks/inbound-email.
//
// All long-running work (attachment storage, the reply append) happens
// before the response is written; there is no durable queue behind this
// endpoint, so responding early would drop the message.
func (h *WebhookHandler) InboundEmail(c *fiber.Ctx) error {
	headerType := c.Get(ingest.HeaderMessageType)

	outcome, err := h.router.Route(c.UserContext(), headerType, c.Body())
	if err != nil {
		return err
	}

	return c.JSON(dto.InboundEmailResponse{
		Success:     true,
		Message:     outcome.Message,
		TicketID:    outcome.TicketID,
		SenderEmail: outcome.SenderEmail,
	})
}
