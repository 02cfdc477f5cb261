package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/jackc/pgx/v5"
)

type moderationApplicationService interface {
	ListReports(ctx context.Context, actor models.Actor, status string) ([]models.Report, error)
	ResolveReport(ctx context.Context, actor models.Actor, reportID uuid.UUID, status string) (*models.Report, error)
	ListUsers(ctx context.Context, actor models.Actor, filter repository.UserListFilter) ([]models.User, error)
	SetUserStatus(ctx context.Context, actor models.Actor, userID uuid.UUID, status string) (*models.User, error)
	VerifyUser(ctx context.Context, actor models.Actor, userID uuid.UUID) (*models.User, error)
	ListAppeals(ctx context.Context, actor models.Actor, status string) ([]models.Appeal, error)
	RespondToAppeal(ctx context.Context, actor models.Actor, appealID uuid.UUID, status string, response string) (*models.Appeal, error)
	ListKeywords(ctx context.Context, actor models.Actor) ([]models.RestrictedKeyword, error)
	AddKeyword(ctx context.Context, actor models.Actor, keyword string, category string) (*models.RestrictedKeyword, error)
	DeleteKeyword(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type withdrawalAdminService interface {
	ListAllWithdrawals(ctx context.Context, status string) ([]models.Withdrawal, error)
	TransitionWithdrawal(
		ctx context.Context,
		actor models.Actor,
		withdrawalID uuid.UUID,
		requested string,
		reference *string,
	) (*models.Withdrawal, error)
}

type settlementService interface {
	Settle(ctx context.Context, sessionID uuid.UUID) (*models.Settlement, error)
}

// AdminHandler serves the /admin group. Routes are mounted behind AdminOnly;
// services repeat the role check.
type AdminHandler struct {
	moderation  moderationApplicationService
	withdrawals withdrawalAdminService
	settlement  settlementService
}

type statusRequest struct {
	Status    string  `json:"status"`
	Response  string  `json:"response"`
	Reference *string `json:"reference"`
}

type keywordRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

func NewAdminHandler(
	moderation *services.ModerationService,
	withdrawals *services.WalletService,
	settlement *services.SettlementService,
) *AdminHandler {
	return &AdminHandler{
		moderation:  moderation,
		withdrawals: withdrawals,
		settlement:  settlement,
	}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	users, err := h.moderation.ListUsers(c.UserContext(), actor, repository.UserListFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
	})
	if err != nil {
		return mapAdminError(c, err)
	}

	page, limit := pageParams(c)
	items, meta := paginate(users, page, limit)
	return c.JSON(fiber.Map{
		"users":      items,
		"pagination": meta,
	})
}

func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	userID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.moderation.SetUserStatus(c.UserContext(), actor, userID, req.Status)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *AdminHandler) VerifyUser(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	userID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := h.moderation.VerifyUser(c.UserContext(), actor, userID)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	reports, err := h.moderation.ListReports(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return mapAdminError(c, err)
	}

	page, limit := pageParams(c)
	items, meta := paginate(reports, page, limit)
	return c.JSON(fiber.Map{
		"reports":    items,
		"pagination": meta,
	})
}

func (h *AdminHandler) ResolveReport(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	reportID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := h.moderation.ResolveReport(c.UserContext(), actor, reportID, req.Status)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *AdminHandler) ListAppeals(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	appeals, err := h.moderation.ListAppeals(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"appeals": appeals})
}

func (h *AdminHandler) RespondToAppeal(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	appealID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appeal id"})
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appeal, err := h.moderation.RespondToAppeal(c.UserContext(), actor, appealID, req.Status, req.Response)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"appeal": appeal})
}

func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	withdrawals, err := h.withdrawals.ListAllWithdrawals(c.UserContext(), c.Query("status"))
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"withdrawals": withdrawals})
}

func (h *AdminHandler) UpdateWithdrawalStatus(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	withdrawalID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid withdrawal id"})
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	withdrawal, err := h.withdrawals.TransitionWithdrawal(c.UserContext(), actor, withdrawalID, req.Status, req.Reference)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"withdrawal": withdrawal})
}

// SettleSession retries a payout that failed after the learner's review.
func (h *AdminHandler) SettleSession(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	settlement, err := h.settlement.Settle(c.UserContext(), sessionID)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"settlement": settlement})
}

func (h *AdminHandler) ListKeywords(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	keywords, err := h.moderation.ListKeywords(c.UserContext(), actor)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.JSON(fiber.Map{"keywords": keywords})
}

func (h *AdminHandler) AddKeyword(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req keywordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	keyword, err := h.moderation.AddKeyword(c.UserContext(), actor, req.Keyword, req.Category)
	if err != nil {
		return mapAdminError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"keyword": keyword})
}

func (h *AdminHandler) DeleteKeyword(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	keywordID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid keyword id"})
	}

	if err := h.moderation.DeleteKeyword(c.UserContext(), actor, keywordID); err != nil {
		return mapAdminError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func mapAdminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid status transition"})
	case errors.Is(err, services.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already exists"})
	case errors.Is(err, services.ErrAlreadySettled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session already settled"})
	case errors.Is(err, services.ErrPayoutFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payout failed, retry later"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process admin request"})
	}
}
