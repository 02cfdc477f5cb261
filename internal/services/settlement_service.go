package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/payments"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type settlementClaimer interface {
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	ClaimSettlement(ctx context.Context, sessionID uuid.UUID, now time.Time) (*models.Session, error)
	ReleaseSettlement(ctx context.Context, sessionID uuid.UUID) error
	MarkEscrowReleased(ctx context.Context, sessionID uuid.UUID) error
}

type settlementWriter interface {
	CompleteSettlement(ctx context.Context, input repository.SettleInput) (*models.Session, *models.Transaction, error)
}

type payoutGateway interface {
	SettleEscrow(ctx context.Context, reference string) error
	Transfer(ctx context.Context, request payments.TransferRequest) (*payments.TransferResult, error)
}

// SettlementService releases a session's held funds to the tutor. A session is
// claimed before any external call so that it settles at most once.
type SettlementService struct {
	sessions settlementClaimer
	store    settlementWriter
	users    userReader
	gateway  payoutGateway
	events   events.Publisher
	currency string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSettlementService(
	sessions settlementClaimer,
	store settlementWriter,
	users userReader,
	gateway payoutGateway,
	publisher events.Publisher,
	currency string,
	logger zerolog.Logger,
) *SettlementService {
	if currency == "" {
		currency = "NGN"
	}
	return &SettlementService{
		sessions: sessions,
		store:    store,
		users:    users,
		gateway:  gateway,
		events:   publisher,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SettlementService) Settle(ctx context.Context, sessionID uuid.UUID) (*models.Settlement, error) {
	session, err := s.sessions.ClaimSettlement(ctx, sessionID, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.claimFailure(ctx, sessionID)
		}
		return nil, err
	}

	payout, fee := SplitPayout(session.Amount)
	result := &models.Settlement{
		SessionID:   session.ID,
		Payout:      payout,
		PlatformFee: fee,
	}
	log := s.logger.With().
		Str("session_id", session.ID.String()).
		Str("tutor_id", session.StudentID.String()).
		Int64("payout", payout).
		Int64("platform_fee", fee).
		Logger()

	tutor, err := s.users.GetByID(ctx, session.StudentID)
	if err != nil {
		return s.release(ctx, log, result, fmt.Errorf("load tutor: %w", err))
	}

	// A retry after a failed transfer finds the hold already released.
	if reference := gatewayReference(session); reference != "" && s.gateway != nil && session.EscrowReleasedAt == nil {
		if err := s.gateway.SettleEscrow(ctx, reference); err != nil {
			return s.release(ctx, log, result, err)
		}
		if err := s.sessions.MarkEscrowReleased(ctx, session.ID); err != nil {
			log.Error().Err(err).Str("reference", reference).Msg("escrow released but not recorded")
		}
	}

	input := repository.SettleInput{
		SessionID:   session.ID,
		TutorID:     tutor.ID,
		Payout:      payout,
		Description: "Earning from session: " + sessionDescription(session),
	}
	if tutor.HasPayoutDetails() && s.gateway != nil {
		transfer, err := s.gateway.Transfer(ctx, payments.TransferRequest{
			AccountBank:     *tutor.BankCode,
			AccountNumber:   *tutor.AccountNumber,
			Amount:          json.Number(MajorUnits(payout).StringFixed(2)),
			Currency:        s.currency,
			Reference:       fmt.Sprintf("payout_%s_%d", session.ID, s.now().UnixMilli()),
			BeneficiaryName: *tutor.AccountName,
			Narration:       "Session payout - " + sessionDescription(session),
		})
		if err != nil {
			return s.release(ctx, log, result, err)
		}
		input.Reference = transfer.Reference
		result.Method = "transfer"
	} else {
		input.Reference = fmt.Sprintf("wallet_%s", session.ID)
		input.CreditWallet = true
		result.Method = "wallet"
	}

	settled, earning, err := s.store.CompleteSettlement(ctx, input)
	if err != nil {
		// Funds may already have moved; the claim stays in place for manual reconciliation.
		log.Error().Err(err).Str("reference", input.Reference).Msg("payout sent but settlement not recorded")
		return nil, err
	}

	result.Status = models.SettlementSettled
	result.Reference = input.Reference
	result.Earning = earning
	log.Info().Str("method", result.Method).Str("reference", input.Reference).Msg("session settled")

	if session.Status != models.SessionCompleted && s.events != nil {
		event := events.NewStatusChanged(settled, session.Status, nil, s.now())
		if err := s.events.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Msg("publish settlement status change")
		}
	}
	return result, nil
}

func (s *SettlementService) release(
	ctx context.Context,
	log zerolog.Logger,
	result *models.Settlement,
	cause error,
) (*models.Settlement, error) {
	if err := s.sessions.ReleaseSettlement(ctx, result.SessionID); err != nil {
		log.Error().Err(err).Msg("release settlement claim")
	}
	log.Error().Err(cause).Msg("session payout failed")

	result.Status = models.SettlementFailed
	result.Error = cause.Error()
	return result, fmt.Errorf("%w: %v", ErrPayoutFailed, cause)
}

func (s *SettlementService) claimFailure(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	switch session.PaymentStatusValue() {
	case models.PaymentStatusSettled, models.PaymentStatusSettling:
		return ErrAlreadySettled
	}
	return ErrInvalidStateTransition
}

// gatewayReference is the escrow charge reference, empty for wallet-paid sessions.
func gatewayReference(session *models.Session) string {
	if session.PaymentReference == nil {
		return ""
	}
	reference := strings.TrimSpace(*session.PaymentReference)
	if reference == "" || strings.HasPrefix(reference, walletRefPrefix) {
		return ""
	}
	return reference
}

func sessionDescription(session *models.Session) string {
	if session.Description != nil && strings.TrimSpace(*session.Description) != "" {
		return strings.TrimSpace(*session.Description)
	}
	return fmt.Sprintf("%d-minute session", session.Duration)
}
