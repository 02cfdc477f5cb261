package handlers

import (
	"context"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/middleware"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
	chatws "github.com/hireveno/hireveno-back/internal/websocket"
	"github.com/jackc/pgx/v5"
)

type chatApplicationService interface {
	Window(ctx context.Context, actor models.Actor, sessionID uuid.UUID) (*models.ChatWindow, error)
	List(ctx context.Context, actor models.Actor, sessionID uuid.UUID) ([]models.ChatMessage, error)
	Send(ctx context.Context, actor models.Actor, input services.SendMessageInput) (*models.ChatMessage, error)
	SoftDelete(ctx context.Context, actor models.Actor, messageID uuid.UUID) (*models.ChatMessage, error)
	Flag(ctx context.Context, actor models.Actor, messageID uuid.UUID, reason string) (*models.Report, error)
}

type ChatHandler struct {
	service chatApplicationService
	hub     *chatws.Hub
}

type sendMessageRequest struct {
	Message   string  `json:"message"`
	RepliedTo *string `json:"replied_to"`
}

type flagMessageRequest struct {
	Reason string `json:"reason"`
}

func NewChatHandler(service *services.ChatService, hub *chatws.Hub) *ChatHandler {
	return &ChatHandler{
		service: service,
		hub:     hub,
	}
}

func (h *ChatHandler) GetWindow(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	window, err := h.service.Window(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"window": window})
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	messages, err := h.service.List(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := services.SendMessageInput{SessionID: sessionID, Text: req.Message}
	if req.RepliedTo != nil && *req.RepliedTo != "" {
		repliedTo, err := uuid.Parse(*req.RepliedTo)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid replied_to id"})
		}
		input.RepliedTo = &repliedTo
	}

	message, err := h.service.Send(c.UserContext(), actor, input)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	message, err := h.service.SoftDelete(c.UserContext(), actor, messageID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) FlagMessage(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	var req flagMessageRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	report, err := h.service.Flag(c.UserContext(), actor, messageID, req.Reason)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report": report})
}

func (h *ChatHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	if _, ok := currentActor(c); !ok {
		return unauthorized(c)
	}
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	actor, ok := conn.Locals(middleware.ActorKey).(models.Actor)
	if !ok {
		_ = conn.Close()
		return
	}
	client := chatws.NewClient(h.hub, conn, actor)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func mapChatError(c *fiber.Ctx, err error) error {
	var blocked *services.BlockedMessageError
	switch {
	case errors.As(err, &blocked):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Message blocked",
			"reason": blocked.Reason,
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrChatNotStarted):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": "Session chat has not started yet"})
	case errors.Is(err, services.ErrChatEnded):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": "Session chat has ended"})
	case errors.Is(err, services.ErrChatClosed):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": "Session chat is closed"})
	case errors.Is(err, services.ErrFilterUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Message screening unavailable, try again"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
