package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/jackc/pgx/v5"
)

type walletApplicationService interface {
	Summary(ctx context.Context, actor models.Actor) (*models.WalletSummary, error)
	UpdateBankDetails(ctx context.Context, actor models.Actor, details models.BankDetails) (*models.User, error)
	RequestWithdrawal(ctx context.Context, actor models.Actor, amount int64) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, actor models.Actor) ([]models.Withdrawal, error)
}

type WalletHandler struct {
	service walletApplicationService
}

type withdrawalRequest struct {
	Amount int64 `json:"amount"`
}

func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	summary, err := h.service.Summary(c.UserContext(), actor)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{"wallet": summary})
}

func (h *WalletHandler) UpdateBankDetails(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.BankDetails
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.UpdateBankDetails(c.UserContext(), actor, req)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *WalletHandler) RequestWithdrawal(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req withdrawalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	withdrawal, err := h.service.RequestWithdrawal(c.UserContext(), actor, req.Amount)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"withdrawal": withdrawal})
}

func (h *WalletHandler) ListWithdrawals(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	withdrawals, err := h.service.ListWithdrawals(c.UserContext(), actor)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{"withdrawals": withdrawals})
}

func mapWalletError(c *fiber.Ctx, err error) error {
	var shortfall *services.InsufficientBalanceError
	switch {
	case errors.As(err, &shortfall):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":     "Insufficient wallet balance",
			"required":  shortfall.Required,
			"available": shortfall.Available,
			"shortfall": shortfall.Shortfall(),
		})
	case errors.Is(err, services.ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient wallet balance"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid withdrawal status"})
	case errors.Is(err, services.ErrBelowMinimum):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Amount below minimum withdrawal",
			"minimum": services.MinWithdrawal,
		})
	case errors.Is(err, services.ErrMissingPayoutDetails):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Add your bank details before withdrawing"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid withdrawal status transition"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Withdrawal not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process wallet request"})
	}
}
