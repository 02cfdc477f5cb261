package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/rs/zerolog"
)

type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
	logger     zerolog.Logger

	// ctx is cancelled when Run returns; socket sends run under it.
	ctx  context.Context
	stop context.CancelFunc
}

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	actor models.Actor
	send  chan []byte

	mu     sync.Mutex
	closed bool
}

type sender interface {
	Send(ctx context.Context, actor models.Actor, input services.SendMessageInput) (*models.ChatMessage, error)
}

// Frame is every payload written to a socket.
type Frame struct {
	Type         string               `json:"type"`
	SessionID    string               `json:"session_id,omitempty"`
	Message      *models.ChatMessage  `json:"message,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	Error        string               `json:"error,omitempty"`
	Timestamp    string               `json:"timestamp"`
}

type delivery struct {
	userIDs []uuid.UUID
	payload []byte
}

func NewHub(logger zerolog.Logger) *Hub {
	ctx, stop := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 64),
		logger:     logger,
		ctx:        ctx,
		stop:       stop,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, actor models.Actor) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		actor: actor,
		send:  make(chan []byte, 32),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					client.close()
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.actor.ID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.actor.ID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.actor.ID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				client.close()
			}
			if len(set) == 0 {
				delete(h.clients, client.actor.ID)
			}
		case message := <-h.broadcast:
			for _, userID := range message.userIDs {
				h.sendToUser(userID, message.payload)
			}
		}
	}
}

// Register and Unregister are no-ops once Run has returned.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Deliver writes a notification frame to the user's open sockets.
func (h *Hub) Deliver(_ context.Context, notification models.Notification) error {
	return h.enqueue([]uuid.UUID{notification.UserID}, Frame{
		Type:         "notification",
		SessionID:    notification.SessionID.String(),
		Notification: &notification,
	})
}

// DeliverMessage writes a chat message frame to each recipient's open sockets.
func (h *Hub) DeliverMessage(_ context.Context, recipients []uuid.UUID, message *models.ChatMessage) error {
	return h.enqueue(recipients, Frame{
		Type:      "message",
		SessionID: message.SessionID.String(),
		Message:   message,
	})
}

var errHubBusy = errors.New("websocket hub busy")

func (h *Hub) enqueue(userIDs []uuid.UUID, frame Frame) error {
	payload, err := encodeFrame(frame)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &delivery{userIDs: userIDs, payload: payload}:
		return nil
	default:
		return errHubBusy
	}
}

func (h *Hub) sendToUser(userID uuid.UUID, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if !client.trySend(payload) {
			h.logger.Debug().Str("user_id", userID.String()).Msg("dropping slow websocket client")
			delete(set, client)
			client.close()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// trySend queues payload without blocking. It reports false when the buffer
// is full or the client is already closed.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func encodeFrame(frame Frame) ([]byte, error) {
	if frame.Timestamp == "" {
		frame.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return json.Marshal(frame)
}

// ReadPump accepts chat sends from the socket. Accepted messages come back to
// both parties through the event relay. Hub shutdown closes the connection and
// cancels sends in flight.
func (c *Client) ReadPump(service sender) {
	ctx, cancel := context.WithCancel(c.hub.ctx)
	defer func() {
		cancel()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleFrame(ctx, service, payload)
	}
}

func (c *Client) handleFrame(ctx context.Context, service sender, payload []byte) {
	var incoming struct {
		Type      string  `json:"type"`
		SessionID string  `json:"session_id"`
		Message   string  `json:"message"`
		RepliedTo *string `json:"replied_to"`
	}
	if err := json.Unmarshal(payload, &incoming); err != nil {
		writeError(c, "", "invalid message payload")
		return
	}
	if incoming.Type != "message" {
		writeError(c, incoming.SessionID, "unsupported message type")
		return
	}

	sessionID, err := uuid.Parse(incoming.SessionID)
	if err != nil {
		writeError(c, incoming.SessionID, "invalid session id")
		return
	}
	input := services.SendMessageInput{SessionID: sessionID, Text: incoming.Message}
	if incoming.RepliedTo != nil && *incoming.RepliedTo != "" {
		repliedTo, err := uuid.Parse(*incoming.RepliedTo)
		if err != nil {
			writeError(c, incoming.SessionID, "invalid replied_to id")
			return
		}
		input.RepliedTo = &repliedTo
	}

	if _, err := service.Send(ctx, c.actor, input); err != nil {
		writeError(c, incoming.SessionID, sendErrorText(err))
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func sendErrorText(err error) string {
	var blocked *services.BlockedMessageError
	switch {
	case errors.As(err, &blocked):
		return blocked.Reason
	case errors.Is(err, services.ErrChatNotStarted),
		errors.Is(err, services.ErrChatEnded),
		errors.Is(err, services.ErrChatClosed),
		errors.Is(err, services.ErrFilterUnavailable),
		errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrInvalidInput):
		return err.Error()
	default:
		return "failed to send message"
	}
}

func writeError(client *Client, sessionID string, message string) {
	payload, err := encodeFrame(Frame{
		Type:      "error",
		SessionID: sessionID,
		Error:     message,
	})
	if err != nil {
		return
	}
	if !client.trySend(payload) {
		client.hub.Unregister(client)
	}
}
