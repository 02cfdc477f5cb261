package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/hireveno/hireveno-back/internal/payments"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/rs/zerolog"
)

type webhookProcessor interface {
	HandleWebhook(ctx context.Context, event payments.WebhookEvent) error
}

// WebhookHandler receives Flutterwave charge notifications.
type WebhookHandler struct {
	service webhookProcessor
	hash    string
	logger  zerolog.Logger
}

func NewWebhookHandler(service *services.PaymentService, hash string, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		hash:    hash,
		logger:  logger,
	}
}

func (h *WebhookHandler) Flutterwave(c *fiber.Ctx) error {
	if !payments.ValidWebhookHash(c.Get("verif-hash"), h.hash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	var event payments.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	// Well-formed events are always acknowledged.
	if err := h.service.HandleWebhook(c.UserContext(), event); err != nil {
		h.logger.Error().Err(err).
			Str("event", event.Event).
			Str("tx_ref", event.Data.TxRef).
			Msg("webhook reconciliation failed")
	}

	return c.JSON(fiber.Map{"received": true})
}
