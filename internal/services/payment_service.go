package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/payments"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	gatewayRefPrefix = "session_"
	walletRefPrefix  = "wallet_"
)

type bookingValidator interface {
	ValidateBooking(ctx context.Context, actor models.Actor, input BookingInput) (*models.User, int64, error)
}

type paidSessionWriter interface {
	CreatePaidSession(ctx context.Context, input repository.PaidSessionInput) (*models.SessionDetail, error)
	ReconcileGatewayPayment(ctx context.Context, reference string) (int64, error)
}

type balanceReader interface {
	WalletBalance(ctx context.Context, id uuid.UUID) (int64, error)
}

type chargeVerifier interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*payments.VerifiedCharge, error)
}

type PaymentConfig struct {
	PublicKey string
	Currency  string
}

type GatewayCallback struct {
	Status        string `json:"status"`
	FlwRef        string `json:"flw_ref"`
	TxRef         string `json:"tx_ref"`
	TransactionID string `json:"transaction_id"`
}

// PaymentService books sessions through either the hosted gateway or the
// payer's wallet. Both paths write the session and its payment row together.
type PaymentService struct {
	bookings bookingValidator
	store    paidSessionWriter
	balances balanceReader
	verifier chargeVerifier
	events   events.Publisher
	cfg      PaymentConfig
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(
	bookings bookingValidator,
	store paidSessionWriter,
	balances balanceReader,
	verifier chargeVerifier,
	publisher events.Publisher,
	cfg PaymentConfig,
	logger zerolog.Logger,
) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	return &PaymentService{
		bookings: bookings,
		store:    store,
		balances: balances,
		verifier: verifier,
		events:   publisher,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *PaymentService) PrepareCheckout(
	ctx context.Context,
	actor models.Actor,
	input BookingInput,
) (*models.CheckoutRequest, error) {
	tutor, amount, err := s.bookings.ValidateBooking(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	return &models.CheckoutRequest{
		PublicKey:   s.cfg.PublicKey,
		TxRef:       fmt.Sprintf("%s%d_%s", gatewayRefPrefix, s.now().UnixMilli(), actor.ID),
		Amount:      MajorUnits(amount).StringFixed(2),
		AmountMinor: amount,
		Currency:    s.cfg.Currency,
		Options:     "card,banktransfer,ussd",
		Customer: models.CheckoutCustomer{
			Email: actor.Email,
			Name:  actor.Name,
		},
		Meta: map[string]string{
			"rave_escrow_tx": "1",
			"student_id":     tutor.ID.String(),
			"duration":       strconv.Itoa(input.Duration),
		},
		Title:       "Hireveno session",
		Description: fmt.Sprintf("%d-minute session with %s", input.Duration, tutor.Name),
	}, nil
}

// ConfirmGatewayPayment records a booking after the hosted checkout reports success.
func (s *PaymentService) ConfirmGatewayPayment(
	ctx context.Context,
	actor models.Actor,
	input BookingInput,
	callback GatewayCallback,
) (*models.SessionDetail, error) {
	status := strings.ToLower(strings.TrimSpace(callback.Status))
	if status != "successful" && status != "completed" {
		return nil, ErrPaymentNotSuccessful
	}
	if !strings.HasPrefix(callback.TxRef, gatewayRefPrefix) || !strings.HasSuffix(callback.TxRef, "_"+actor.ID.String()) {
		return nil, ErrPaymentMismatch
	}

	_, amount, err := s.bookings.ValidateBooking(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	// With a gateway configured, an unverifiable callback is never trusted.
	if s.verifier != nil {
		if strings.TrimSpace(callback.TransactionID) == "" {
			return nil, ErrPaymentMismatch
		}
		if err := s.verifyCharge(ctx, callback, amount); err != nil {
			return nil, err
		}
	}

	reference := strings.TrimSpace(callback.FlwRef)
	if reference == "" {
		reference = callback.TxRef
	}

	detail, err := s.createPaidSession(ctx, actor, input, amount, reference, false)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return detail, nil
}

func (s *PaymentService) verifyCharge(ctx context.Context, callback GatewayCallback, amount int64) error {
	charge, err := s.verifier.VerifyTransaction(ctx, callback.TransactionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	if !strings.EqualFold(charge.Status, "successful") {
		return ErrPaymentNotSuccessful
	}
	if charge.TxRef != callback.TxRef || !strings.EqualFold(charge.Currency, s.cfg.Currency) {
		return ErrPaymentMismatch
	}
	if charge.Amount.LessThan(decimal.NewFromInt(amount).Shift(-2)) {
		return ErrPaymentMismatch
	}
	return nil
}

// PayWithWallet books a session against the payer's wallet balance. A short
// balance fails before any write.
func (s *PaymentService) PayWithWallet(
	ctx context.Context,
	actor models.Actor,
	input BookingInput,
) (*models.SessionDetail, error) {
	_, amount, err := s.bookings.ValidateBooking(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	balance, err := s.balances.WalletBalance(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, &InsufficientBalanceError{Required: amount, Available: balance}
	}

	reference := fmt.Sprintf("%s%d", walletRefPrefix, s.now().UnixMilli())
	detail, err := s.createPaidSession(ctx, actor, input, amount, reference, true)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			available, balanceErr := s.balances.WalletBalance(ctx, actor.ID)
			if balanceErr != nil {
				available = 0
			}
			return nil, &InsufficientBalanceError{Required: amount, Available: available}
		}
		return nil, err
	}
	return detail, nil
}

func (s *PaymentService) createPaidSession(
	ctx context.Context,
	actor models.Actor,
	input BookingInput,
	amount int64,
	reference string,
	fromWallet bool,
) (*models.SessionDetail, error) {
	description := fmt.Sprintf("Payment for %d-minute session", input.Duration)
	detail, err := s.store.CreatePaidSession(ctx, repository.PaidSessionInput{
		Session: repository.CreateSessionInput{
			ClientID:         actor.ID,
			StudentID:        input.StudentID,
			Duration:         input.Duration,
			ScheduledAt:      input.ScheduledAt.UTC(),
			Amount:           amount,
			Status:           models.SessionConfirmed,
			PaymentStatus:    models.PaymentStatusCompleted,
			PaymentReference: reference,
			Description:      input.Description,
		},
		Payment: repository.CreateTransactionInput{
			UserID:      actor.ID,
			Amount:      amount,
			Type:        models.TransactionPayment,
			Status:      models.TransactionCompleted,
			Reference:   reference,
			Description: &description,
		},
		DebitWallet: fromWallet,
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewSessionCreated(&detail.Session, s.now())); err != nil {
			s.logger.Warn().Err(err).Str("session_id", detail.ID.String()).Msg("publish session created")
		}
	}
	return detail, nil
}

// HandleWebhook reconciles out-of-band charge confirmations. Events that do not
// describe a successful session charge are ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, event payments.WebhookEvent) error {
	if event.Event != "charge.completed" ||
		!strings.EqualFold(event.Data.Status, "successful") ||
		!strings.HasPrefix(event.Data.TxRef, gatewayRefPrefix) {
		return nil
	}

	var updated int64
	for _, reference := range []string{event.Data.FlwRef, event.Data.TxRef} {
		if reference == "" {
			continue
		}
		count, err := s.store.ReconcileGatewayPayment(ctx, reference)
		if err != nil {
			return err
		}
		updated += count
	}

	s.logger.Info().
		Str("tx_ref", event.Data.TxRef).
		Str("flw_ref", event.Data.FlwRef).
		Int64("rows", updated).
		Msg("gateway charge reconciled")
	return nil
}
