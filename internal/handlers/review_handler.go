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

type reviewApplicationService interface {
	Submit(ctx context.Context, actor models.Actor, sessionID uuid.UUID, input services.SubmitReviewInput) (*models.ReviewResult, error)
	ListForSession(ctx context.Context, actor models.Actor, sessionID uuid.UUID) ([]models.Review, error)
	ForTutor(ctx context.Context, tutorID uuid.UUID) (*models.TutorReviews, error)
}

type ReviewHandler struct {
	service reviewApplicationService
}

type submitReviewRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) SubmitReview(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req submitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.Submit(c.UserContext(), actor, sessionID, services.SubmitReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return mapReviewError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"review":     result.Review,
		"settlement": result.Settlement,
	})
}

func (h *ReviewHandler) ListSessionReviews(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	reviews, err := h.service.ListForSession(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapReviewError(c, err)
	}

	return c.JSON(fiber.Map{"reviews": reviews})
}

func (h *ReviewHandler) TutorReviews(c *fiber.Ctx) error {
	tutorID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	reviews, err := h.service.ForTutor(c.UserContext(), tutorID)
	if err != nil {
		return mapReviewError(c, err)
	}

	return c.JSON(reviews)
}

func mapReviewError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	case errors.Is(err, services.ErrSessionNotFinished):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session has not finished"})
	case errors.Is(err, services.ErrDuplicateReview):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session already reviewed"})
	case errors.Is(err, services.ErrAlreadySettled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session already settled"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session cannot be settled in its current state"})
	case errors.Is(err, services.ErrPayoutFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payout failed, retry later"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process review request"})
	}
}
