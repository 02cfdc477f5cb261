package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/services"
)

type stubWalletService struct {
	summaryResult    *models.WalletSummary
	summaryErr       error
	bankResult       *models.User
	bankErr          error
	withdrawalResult *models.Withdrawal
	withdrawalErr    error
	listResult       []models.Withdrawal
	lastDetails      models.BankDetails
	lastAmount       int64
}

func (s *stubWalletService) Summary(_ context.Context, _ models.Actor) (*models.WalletSummary, error) {
	return s.summaryResult, s.summaryErr
}

func (s *stubWalletService) UpdateBankDetails(_ context.Context, _ models.Actor, details models.BankDetails) (*models.User, error) {
	s.lastDetails = details
	return s.bankResult, s.bankErr
}

func (s *stubWalletService) RequestWithdrawal(_ context.Context, _ models.Actor, amount int64) (*models.Withdrawal, error) {
	s.lastAmount = amount
	return s.withdrawalResult, s.withdrawalErr
}

func (s *stubWalletService) ListWithdrawals(_ context.Context, _ models.Actor) ([]models.Withdrawal, error) {
	return s.listResult, nil
}

func tutorActor() models.Actor {
	return models.Actor{ID: tutorID, Role: models.RoleStudent, Status: models.UserActive}
}

func TestGetWalletReturnsSummary(t *testing.T) {
	service := &stubWalletService{summaryResult: &models.WalletSummary{Balance: 105000}}
	handler := &WalletHandler{service: service}

	app := newActorApp(tutorActor())
	app.Get("/api/v1/wallet", handler.GetWallet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Wallet models.WalletSummary `json:"wallet"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Wallet.Balance != 105000 {
		t.Fatalf("expected balance 105000, got %d", body.Wallet.Balance)
	}
}

func TestUpdateBankDetailsParsesBody(t *testing.T) {
	service := &stubWalletService{bankResult: &models.User{ID: tutorID}}
	handler := &WalletHandler{service: service}

	app := newActorApp(tutorActor())
	app.Put("/api/v1/wallet/bank", handler.UpdateBankDetails)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/wallet/bank", `{
		"bank_name": "Access Bank",
		"bank_code": "044",
		"account_number": "0690000031",
		"account_name": "Ada Okafor"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastDetails.BankCode != "044" || service.lastDetails.AccountNumber != "0690000031" {
		t.Fatalf("unexpected details %+v", service.lastDetails)
	}
}

func TestRequestWithdrawalWithoutBodyWithdrawsEverything(t *testing.T) {
	service := &stubWalletService{withdrawalResult: &models.Withdrawal{Amount: 105000}}
	handler := &WalletHandler{service: service}

	app := newActorApp(tutorActor())
	app.Post("/api/v1/wallet/withdrawals", handler.RequestWithdrawal)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/withdrawals", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastAmount != 0 {
		t.Fatalf("expected amount 0, got %d", service.lastAmount)
	}
}

func TestRequestWithdrawalMapsErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "below minimum", err: services.ErrBelowMinimum, want: http.StatusBadRequest},
		{name: "no bank details", err: services.ErrMissingPayoutDetails, want: http.StatusUnprocessableEntity},
		{name: "short balance", err: &services.InsufficientBalanceError{Required: 60000, Available: 10000}, want: http.StatusPaymentRequired},
		{name: "learner", err: services.ErrForbidden, want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := &WalletHandler{service: &stubWalletService{withdrawalErr: tc.err}}

			app := newActorApp(tutorActor())
			app.Post("/api/v1/wallet/withdrawals", handler.RequestWithdrawal)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/wallet/withdrawals", `{"amount": 60000}`))
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
