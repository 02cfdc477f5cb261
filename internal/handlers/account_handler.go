package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/jackc/pgx/v5"
)

type accountApplicationService interface {
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
	RegisterDevice(ctx context.Context, actor models.Actor, token string, deviceType *string) (*models.Device, error)
	CreateAppeal(ctx context.Context, actor models.Actor, input services.CreateAppealInput) (*models.Appeal, error)
	ListAppeals(ctx context.Context, actor models.Actor) ([]models.Appeal, error)
}

type AccountHandler struct {
	service accountApplicationService
}

type registerDeviceRequest struct {
	Token      string  `json:"token"`
	DeviceType *string `json:"device_type"`
}

type createAppealRequest struct {
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) Me(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.service.Me(c.UserContext(), actor)
	if err != nil {
		return mapAccountError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *AccountHandler) RegisterDevice(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req registerDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	device, err := h.service.RegisterDevice(c.UserContext(), actor, req.Token, req.DeviceType)
	if err != nil {
		return mapAccountError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"device": device})
}

func (h *AccountHandler) CreateAppeal(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req createAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appeal, err := h.service.CreateAppeal(c.UserContext(), actor, services.CreateAppealInput{
		Type:        req.Type,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		return mapAccountError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appeal": appeal})
}

func (h *AccountHandler) ListAppeals(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	appeals, err := h.service.ListAppeals(c.UserContext(), actor)
	if err != nil {
		return mapAccountError(c, err)
	}

	return c.JSON(fiber.Map{"appeals": appeals})
}

func mapAccountError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process account request"})
	}
}
