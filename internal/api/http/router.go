package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mailroom/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Webhook *handlers.WebhookHandler
}

// RegisterRoutes wires HTTP routes. Non-POST requests to the webhook path
// get fiber's automatic 405.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/webhooks/inbound-email", cfg.Webhook.InboundEmail)
}
