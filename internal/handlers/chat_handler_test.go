package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
)

type stubChatService struct {
	windowResult *models.ChatWindow
	windowErr    error
	listResult   []models.ChatMessage
	listErr      error
	sendResult   *models.ChatMessage
	sendErr      error
	deleteResult *models.ChatMessage
	deleteErr    error
	flagResult   *models.Report
	flagErr      error
	lastInput    services.SendMessageInput
	lastID       uuid.UUID
	lastReason   string
}

func (s *stubChatService) Window(_ context.Context, _ models.Actor, id uuid.UUID) (*models.ChatWindow, error) {
	s.lastID = id
	return s.windowResult, s.windowErr
}

func (s *stubChatService) List(_ context.Context, _ models.Actor, id uuid.UUID) ([]models.ChatMessage, error) {
	s.lastID = id
	return s.listResult, s.listErr
}

func (s *stubChatService) Send(_ context.Context, _ models.Actor, input services.SendMessageInput) (*models.ChatMessage, error) {
	s.lastInput = input
	return s.sendResult, s.sendErr
}

func (s *stubChatService) SoftDelete(_ context.Context, _ models.Actor, id uuid.UUID) (*models.ChatMessage, error) {
	s.lastID = id
	return s.deleteResult, s.deleteErr
}

func (s *stubChatService) Flag(_ context.Context, _ models.Actor, id uuid.UUID, reason string) (*models.Report, error) {
	s.lastID = id
	s.lastReason = reason
	return s.flagResult, s.flagErr
}

func TestSendMessageReturnsCreatedMessage(t *testing.T) {
	repliedTo := uuid.MustParse("4f3e2d1c-0b9a-4876-9543-210fedcba904")
	service := &stubChatService{
		sendResult: &models.ChatMessage{SessionID: sessionID, SenderID: learnerID, Message: "Can you explain mitosis?"},
	}
	handler := &ChatHandler{service: service}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/:id/messages", handler.SendMessage)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/messages",
		`{"message":"Can you explain mitosis?","replied_to":"`+repliedTo.String()+`"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastInput.SessionID != sessionID {
		t.Fatalf("expected session %s, got %s", sessionID, service.lastInput.SessionID)
	}
	if service.lastInput.RepliedTo == nil || *service.lastInput.RepliedTo != repliedTo {
		t.Fatalf("expected replied_to %s, got %v", repliedTo, service.lastInput.RepliedTo)
	}
}

func TestSendMessageReturnsFilterReason(t *testing.T) {
	service := &stubChatService{
		sendErr: &services.BlockedMessageError{Reason: "Messages must relate to academic topics."},
	}
	handler := &ChatHandler{service: service}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/:id/messages", handler.SendMessage)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/messages",
		`{"message":"Let's meet for a date, here's my whatsapp"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["reason"] != "Messages must relate to academic topics." {
		t.Fatalf("unexpected reason %q", body["reason"])
	}
}

func TestSendMessageMapsWindowErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not started", err: services.ErrChatNotStarted, want: http.StatusLocked},
		{name: "ended", err: services.ErrChatEnded, want: http.StatusLocked},
		{name: "filter down", err: services.ErrFilterUnavailable, want: http.StatusServiceUnavailable},
		{name: "not a party", err: services.ErrForbidden, want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := &ChatHandler{service: &stubChatService{sendErr: tc.err}}

			app := newActorApp(learnerActor())
			app.Post("/api/v1/sessions/:id/messages", handler.SendMessage)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/messages", `{"message":"hello biology"}`))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestGetWindowReturnsCountdown(t *testing.T) {
	service := &stubChatService{
		windowResult: &models.ChatWindow{SessionID: sessionID, Phase: models.ChatNotStarted, SecondsUntilStart: 60},
	}
	handler := &ChatHandler{service: service}

	app := newActorApp(learnerActor())
	app.Get("/api/v1/sessions/:id/chat/window", handler.GetWindow)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String()+"/chat/window", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Window models.ChatWindow `json:"window"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Window.Phase != models.ChatNotStarted || body.Window.SecondsUntilStart != 60 {
		t.Fatalf("unexpected window %+v", body.Window)
	}
}

func TestFlagMessageAllowsEmptyBody(t *testing.T) {
	messageID := uuid.MustParse("7e6d5c4b-3a29-4180-a7b6-c5d4e3f2a105")
	service := &stubChatService{flagResult: &models.Report{MessageID: messageID}}
	handler := &ChatHandler{service: service}

	app := newActorApp(models.Actor{ID: tutorID, Role: models.RoleStudent, Status: models.UserActive})
	app.Post("/api/v1/messages/:id/flag", handler.FlagMessage)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/messages/"+messageID.String()+"/flag", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastID != messageID || service.lastReason != "" {
		t.Fatalf("unexpected flag call id=%s reason=%q", service.lastID, service.lastReason)
	}
}

func TestDeleteMessageForbiddenForOthers(t *testing.T) {
	messageID := uuid.MustParse("7e6d5c4b-3a29-4180-a7b6-c5d4e3f2a105")
	handler := &ChatHandler{service: &stubChatService{deleteErr: services.ErrForbidden}}

	app := newActorApp(learnerActor())
	app.Delete("/api/v1/messages/:id", handler.DeleteMessage)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/messages/"+messageID.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
