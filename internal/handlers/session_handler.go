package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/jackc/pgx/v5"
)

type sessionApplicationService interface {
	Get(ctx context.Context, actor models.Actor, sessionID uuid.UUID) (*models.SessionDetail, error)
	List(ctx context.Context, actor models.Actor, status string) ([]models.SessionDetail, error)
	Transition(ctx context.Context, actor models.Actor, sessionID uuid.UUID, requestedStatus string) (*models.Session, error)
}

type paymentApplicationService interface {
	PrepareCheckout(ctx context.Context, actor models.Actor, input services.BookingInput) (*models.CheckoutRequest, error)
	ConfirmGatewayPayment(
		ctx context.Context,
		actor models.Actor,
		input services.BookingInput,
		callback services.GatewayCallback,
	) (*models.SessionDetail, error)
	PayWithWallet(ctx context.Context, actor models.Actor, input services.BookingInput) (*models.SessionDetail, error)
}

type SessionHandler struct {
	service  sessionApplicationService
	payments paymentApplicationService
}

type gatewayPaymentRequest struct {
	bookingRequest
	Payment services.GatewayCallback `json:"payment"`
}

type updateSessionStatusRequest struct {
	Status string `json:"status"`
}

func NewSessionHandler(service *services.SessionService, payments *services.PaymentService) *SessionHandler {
	return &SessionHandler{
		service:  service,
		payments: payments,
	}
}

func (h *SessionHandler) Checkout(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id and an RFC3339 scheduled_at are required"})
	}

	checkout, err := h.payments.PrepareCheckout(c.UserContext(), actor, input)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"checkout": checkout})
}

func (h *SessionHandler) PayWithGateway(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req gatewayPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id and an RFC3339 scheduled_at are required"})
	}

	session, err := h.payments.ConfirmGatewayPayment(c.UserContext(), actor, input, req.Payment)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) PayWithWallet(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id and an RFC3339 scheduled_at are required"})
	}

	session, err := h.payments.PayWithWallet(c.UserContext(), actor, input)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.service.List(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.Get(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.Transition(c.UserContext(), actor, sessionID, req.Status)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func mapSessionError(c *fiber.Ctx, err error) error {
	var shortfall *services.InsufficientBalanceError
	switch {
	case errors.As(err, &shortfall):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":     "Insufficient wallet balance",
			"required":  shortfall.Required,
			"available": shortfall.Available,
			"shortfall": shortfall.Shortfall(),
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking request"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session status"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid session status transition"})
	case errors.Is(err, services.ErrTutorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
	case errors.Is(err, services.ErrTutorNotBookable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Tutor is not available for booking"})
	case errors.Is(err, services.ErrPaymentNotSuccessful):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Payment was not successful, please retry"})
	case errors.Is(err, services.ErrPaymentMismatch):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Payment does not match the booking"})
	case errors.Is(err, services.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment already recorded"})
	case errors.Is(err, services.ErrGatewayFailure):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway unavailable"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
