package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/api/dto"
	"github.com/spec-kit/mailroom/internal/ingest"
	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

func newTestApp(router *ingest.Router) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
				"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message},
			})
		}
		return nil
	})
	handler := NewWebhookHandler(router)
	app.Post("/webhooks/inbound-email", handler.InboundEmail)
	return app
}

func TestInboundEmailHandshake(t *testing.T) {
	confirm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer confirm.Close()

	// nil pipeline: the handshake must complete without touching the
	// ticket store.
	router := ingest.NewRouter(nil, confirm.Client(), zap.NewNop())
	app := newTestApp(router)

	body, _ := json.Marshal(ingest.Envelope{
		Type:         "SubscriptionConfirmation",
		SubscribeURL: confirm.URL,
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound-email", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ingest.HeaderMessageType, "SubscriptionConfirmation")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload, _ := io.ReadAll(resp.Body)
	var parsed dto.InboundEmailResponse
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.True(t, parsed.Success)
}

func TestInboundEmailMalformedEnvelope(t *testing.T) {
	router := ingest.NewRouter(nil, nil, zap.NewNop())
	app := newTestApp(router)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound-email", bytes.NewReader([]byte("{broken")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInboundEmailMethodNotAllowed(t *testing.T) {
	router := ingest.NewRouter(nil, nil, zap.NewNop())
	app := newTestApp(router)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/inbound-email", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestInboundEmailUnknownTypeStillOK(t *testing.T) {
	router := ingest.NewRouter(nil, nil, zap.NewNop())
	app := newTestApp(router)

	body, _ := json.Marshal(ingest.Envelope{Type: "BrandNewThing"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound-email", bytes.NewReader(body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
