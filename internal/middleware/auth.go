package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/pkg/utils"
	"github.com/jackc/pgx/v5"
)

// ActorKey is the fiber Locals key holding the resolved models.Actor.
const ActorKey = "actor"

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthRequired validates the bearer token and resolves the caller's profile.
// Browsers cannot set headers on WebSocket upgrades, so a token query
// parameter is accepted as well.
func AuthRequired(secret string, users userReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Profile not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load profile",
			})
		}

		SetActor(c, models.Actor{
			ID:     user.ID,
			Email:  claims.Email,
			Name:   user.Name,
			Role:   user.Role,
			Status: user.Status,
		})
		return c.Next()
	}
}

// ActiveOnly rejects blocked and banned accounts.
func ActiveOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if actor.Status == models.UserBlocked || actor.Status == models.UserBanned {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account is " + string(actor.Status),
			})
		}
		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
		}
		return c.Next()
	}
}

func SetActor(c *fiber.Ctx, actor models.Actor) {
	c.Locals(ActorKey, actor)
}

func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(ActorKey).(models.Actor)
	return actor, ok
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		token := strings.TrimSpace(c.Query("token"))
		return token, token != ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
