package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/middleware"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
	"github.com/jackc/pgx/v5"
)

var (
	learnerID = uuid.MustParse("0b8f5a3e-7c61-4a0f-9d0e-2d6f1c7a1b01")
	tutorID   = uuid.MustParse("5c2e9f4d-1a3b-4c7e-8f90-3e4d5a6b7c02")
	sessionID = uuid.MustParse("9a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c03")
)

type stubSessionService struct {
	getResult        *models.SessionDetail
	getErr           error
	listResult       []models.SessionDetail
	listErr          error
	transitionResult *models.Session
	transitionErr    error
	lastActor        models.Actor
	lastSessionID    uuid.UUID
	lastStatus       string
}

func (s *stubSessionService) Get(_ context.Context, actor models.Actor, id uuid.UUID) (*models.SessionDetail, error) {
	s.lastActor = actor
	s.lastSessionID = id
	return s.getResult, s.getErr
}

func (s *stubSessionService) List(_ context.Context, actor models.Actor, status string) ([]models.SessionDetail, error) {
	s.lastActor = actor
	s.lastStatus = status
	return s.listResult, s.listErr
}

func (s *stubSessionService) Transition(_ context.Context, actor models.Actor, id uuid.UUID, requested string) (*models.Session, error) {
	s.lastActor = actor
	s.lastSessionID = id
	s.lastStatus = requested
	return s.transitionResult, s.transitionErr
}

type stubPaymentService struct {
	checkoutResult *models.CheckoutRequest
	checkoutErr    error
	gatewayResult  *models.SessionDetail
	gatewayErr     error
	walletResult   *models.SessionDetail
	walletErr      error
	lastInput      services.BookingInput
	lastCallback   services.GatewayCallback
}

func (s *stubPaymentService) PrepareCheckout(_ context.Context, _ models.Actor, input services.BookingInput) (*models.CheckoutRequest, error) {
	s.lastInput = input
	return s.checkoutResult, s.checkoutErr
}

func (s *stubPaymentService) ConfirmGatewayPayment(
	_ context.Context,
	_ models.Actor,
	input services.BookingInput,
	callback services.GatewayCallback,
) (*models.SessionDetail, error) {
	s.lastInput = input
	s.lastCallback = callback
	return s.gatewayResult, s.gatewayErr
}

func (s *stubPaymentService) PayWithWallet(_ context.Context, _ models.Actor, input services.BookingInput) (*models.SessionDetail, error) {
	s.lastInput = input
	return s.walletResult, s.walletErr
}

func newActorApp(actor models.Actor) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetActor(c, actor)
		return c.Next()
	})
	return app
}

func learnerActor() models.Actor {
	return models.Actor{ID: learnerID, Role: models.RoleAspirant, Status: models.UserActive}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPayWithWalletReturnsCreatedSession(t *testing.T) {
	payments := &stubPaymentService{
		walletResult: &models.SessionDetail{
			Session: models.Session{
				ID:        sessionID,
				ClientID:  learnerID,
				StudentID: tutorID,
				Duration:  60,
				Amount:    150000,
				Status:    models.SessionConfirmed,
			},
		},
	}
	handler := &SessionHandler{payments: payments}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/pay/wallet", handler.PayWithWallet)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/pay/wallet", `{
		"student_id": "`+tutorID.String()+`",
		"duration": 60,
		"scheduled_at": "2026-03-15T09:00:00Z",
		"description": "Biology revision"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if payments.lastInput.StudentID != tutorID {
		t.Fatalf("expected student id %s, got %s", tutorID, payments.lastInput.StudentID)
	}
	if payments.lastInput.Duration != 60 {
		t.Fatalf("expected duration 60, got %d", payments.lastInput.Duration)
	}
	if !payments.lastInput.ScheduledAt.Equal(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected scheduled_at %s", payments.lastInput.ScheduledAt)
	}

	var body struct {
		Session models.SessionDetail `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Session.Amount != 150000 {
		t.Fatalf("expected amount 150000, got %d", body.Session.Amount)
	}
}

func TestPayWithWalletReportsShortfall(t *testing.T) {
	payments := &stubPaymentService{
		walletErr: &services.InsufficientBalanceError{Required: 225000, Available: 150000},
	}
	handler := &SessionHandler{payments: payments}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/pay/wallet", handler.PayWithWallet)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/pay/wallet", `{
		"student_id": "`+tutorID.String()+`",
		"duration": 90,
		"scheduled_at": "2026-03-15T09:00:00Z"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["shortfall"] != float64(75000) {
		t.Fatalf("expected shortfall 75000, got %v", body["shortfall"])
	}
}

func TestPayWithWalletRejectsBadScheduledAt(t *testing.T) {
	payments := &stubPaymentService{}
	handler := &SessionHandler{payments: payments}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/pay/wallet", handler.PayWithWallet)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/pay/wallet", `{
		"student_id": "`+tutorID.String()+`",
		"duration": 60,
		"scheduled_at": "tomorrow"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if payments.lastInput.StudentID != uuid.Nil {
		t.Fatalf("expected service not to be called")
	}
}

func TestPayWithGatewayPassesCallback(t *testing.T) {
	payments := &stubPaymentService{
		gatewayResult: &models.SessionDetail{Session: models.Session{ID: sessionID, Status: models.SessionConfirmed}},
	}
	handler := &SessionHandler{payments: payments}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/pay/gateway", handler.PayWithGateway)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/pay/gateway", `{
		"student_id": "`+tutorID.String()+`",
		"duration": 30,
		"scheduled_at": "2026-03-15T09:00:00Z",
		"payment": {"status": "successful", "flw_ref": "FLW-MOCK-1", "tx_ref": "session_1_x", "transaction_id": "4411"}
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if payments.lastCallback.FlwRef != "FLW-MOCK-1" || payments.lastCallback.TransactionID != "4411" {
		t.Fatalf("unexpected callback %+v", payments.lastCallback)
	}
	if payments.lastInput.Duration != 30 {
		t.Fatalf("expected duration 30, got %d", payments.lastInput.Duration)
	}
}

func TestPayWithGatewayMapsFailedPayment(t *testing.T) {
	payments := &stubPaymentService{gatewayErr: services.ErrPaymentNotSuccessful}
	handler := &SessionHandler{payments: payments}

	app := newActorApp(learnerActor())
	app.Post("/api/v1/sessions/pay/gateway", handler.PayWithGateway)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions/pay/gateway", `{
		"student_id": "`+tutorID.String()+`",
		"duration": 30,
		"scheduled_at": "2026-03-15T09:00:00Z",
		"payment": {"status": "cancelled"}
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesStatusFilter(t *testing.T) {
	service := &stubSessionService{listResult: []models.SessionDetail{}}
	handler := &SessionHandler{service: service}

	app := newActorApp(learnerActor())
	app.Get("/api/v1/sessions", handler.ListSessions)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions?status=confirmed", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStatus != "confirmed" {
		t.Fatalf("expected status filter confirmed, got %q", service.lastStatus)
	}
	if service.lastActor.ID != learnerID {
		t.Fatalf("expected actor %s, got %s", learnerID, service.lastActor.ID)
	}
}

func TestGetSessionMapsNotFound(t *testing.T) {
	service := &stubSessionService{getErr: pgx.ErrNoRows}
	handler := &SessionHandler{service: service}

	app := newActorApp(learnerActor())
	app.Get("/api/v1/sessions/:id", handler.GetSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastSessionID != sessionID {
		t.Fatalf("expected session id %s, got %s", sessionID, service.lastSessionID)
	}
}

func TestGetSessionRejectsMalformedID(t *testing.T) {
	handler := &SessionHandler{service: &stubSessionService{}}

	app := newActorApp(learnerActor())
	app.Get("/api/v1/sessions/:id", handler.GetSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/42", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusMapsInvalidTransition(t *testing.T) {
	service := &stubSessionService{transitionErr: services.ErrInvalidStateTransition}
	handler := &SessionHandler{service: service}

	app := newActorApp(models.Actor{ID: tutorID, Role: models.RoleStudent, Status: models.UserActive})
	app.Put("/api/v1/sessions/:id/status", handler.UpdateStatus)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/sessions/"+sessionID.String()+"/status", `{"status":"confirmed"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastStatus != "confirmed" {
		t.Fatalf("expected requested status confirmed, got %q", service.lastStatus)
	}
}

func TestSessionRoutesRequireActor(t *testing.T) {
	handler := &SessionHandler{service: &stubSessionService{}}

	app := fiber.New()
	app.Get("/api/v1/sessions", handler.ListSessions)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMapSessionErrorDefaultsToInternal(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapSessionError(c, errors.New("boom"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
