package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/middleware"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
)

var errInvalidBooking = errors.New("invalid booking request")

type bookingRequest struct {
	StudentID   string  `json:"student_id"`
	Duration    int     `json:"duration"`
	ScheduledAt string  `json:"scheduled_at"`
	Description *string `json:"description"`
}

func (r bookingRequest) toInput() (services.BookingInput, error) {
	studentID, err := uuid.Parse(strings.TrimSpace(r.StudentID))
	if err != nil {
		return services.BookingInput{}, errInvalidBooking
	}
	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(r.ScheduledAt))
	if err != nil {
		return services.BookingInput{}, errInvalidBooking
	}

	return services.BookingInput{
		StudentID:   studentID,
		Duration:    r.Duration,
		ScheduledAt: scheduledAt,
		Description: r.Description,
	}, nil
}

func currentActor(c *fiber.Ctx) (models.Actor, bool) {
	return middleware.ActorFrom(c)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
