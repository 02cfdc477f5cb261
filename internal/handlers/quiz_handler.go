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

type quizApplicationService interface {
	Questions(ctx context.Context, actor models.Actor) ([]models.Question, error)
	Submit(ctx context.Context, actor models.Actor, answers map[uuid.UUID]int) (*models.QuizAttempt, error)
}

type QuizHandler struct {
	service quizApplicationService
}

type quizAttemptRequest struct {
	Answers map[uuid.UUID]int `json:"answers"`
}

func NewQuizHandler(service *services.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) GetQuestions(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	questions, err := h.service.Questions(c.UserContext(), actor)
	if err != nil {
		return mapQuizError(c, err)
	}

	return c.JSON(fiber.Map{"questions": questions})
}

func (h *QuizHandler) SubmitAttempt(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req quizAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	attempt, err := h.service.Submit(c.UserContext(), actor, req.Answers)
	if err != nil {
		return mapQuizError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"attempt": attempt})
}

func mapQuizError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrQuizNotEligible), errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Quiz not available for this account"})
	case errors.Is(err, services.ErrQuizCooldown):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Quiz retake not yet allowed"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Answers are required"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process quiz request"})
	}
}
