package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/rs/zerolog"
)

const (
	MinWithdrawal      = 50000
	walletHistoryLimit = 100
)

type walletUsers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateBankDetails(ctx context.Context, id uuid.UUID, details models.BankDetails) (*models.User, error)
}

type transactionLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

type withdrawalReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	List(ctx context.Context, userID *uuid.UUID, status string) ([]models.Withdrawal, error)
}

type withdrawalWriter interface {
	RequestWithdrawal(
		ctx context.Context,
		userID uuid.UUID,
		amount int64,
		details models.BankDetails,
	) (*models.Withdrawal, error)
	TransitionWithdrawal(
		ctx context.Context,
		id uuid.UUID,
		current models.WithdrawalStatus,
		next models.WithdrawalStatus,
		reference *string,
	) (*models.Withdrawal, error)
}

type WalletService struct {
	users        walletUsers
	transactions transactionLister
	withdrawals  withdrawalReader
	store        withdrawalWriter
	logger       zerolog.Logger
}

func NewWalletService(
	users walletUsers,
	transactions transactionLister,
	withdrawals withdrawalReader,
	store withdrawalWriter,
	logger zerolog.Logger,
) *WalletService {
	return &WalletService{
		users:        users,
		transactions: transactions,
		withdrawals:  withdrawals,
		store:        store,
		logger:       logger,
	}
}

func (s *WalletService) Summary(ctx context.Context, actor models.Actor) (*models.WalletSummary, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.ListByUser(ctx, actor.ID, walletHistoryLimit)
	if err != nil {
		return nil, err
	}
	return &models.WalletSummary{Balance: user.WalletBalance, Transactions: transactions}, nil
}

func (s *WalletService) UpdateBankDetails(
	ctx context.Context,
	actor models.Actor,
	details models.BankDetails,
) (*models.User, error) {
	details = models.BankDetails{
		BankName:      strings.TrimSpace(details.BankName),
		BankCode:      strings.TrimSpace(details.BankCode),
		AccountNumber: strings.TrimSpace(details.AccountNumber),
		AccountName:   strings.TrimSpace(details.AccountName),
	}
	if details.BankName == "" || details.BankCode == "" || details.AccountNumber == "" || details.AccountName == "" {
		return nil, ErrInvalidInput
	}
	return s.users.UpdateBankDetails(ctx, actor.ID, details)
}

// RequestWithdrawal reserves amount from the tutor's wallet. Zero withdraws the whole balance.
func (s *WalletService) RequestWithdrawal(
	ctx context.Context,
	actor models.Actor,
	amount int64,
) (*models.Withdrawal, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrForbidden
	}
	if amount < 0 {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !user.HasPayoutDetails() {
		return nil, ErrMissingPayoutDetails
	}
	if amount == 0 {
		amount = user.WalletBalance
	}
	if amount < MinWithdrawal {
		return nil, ErrBelowMinimum
	}
	if user.WalletBalance < amount {
		return nil, &InsufficientBalanceError{Required: amount, Available: user.WalletBalance}
	}

	details := models.BankDetails{
		BankCode:      *user.BankCode,
		AccountNumber: *user.AccountNumber,
		AccountName:   *user.AccountName,
	}
	if user.BankName != nil {
		details.BankName = *user.BankName
	}

	withdrawal, err := s.store.RequestWithdrawal(ctx, actor.ID, amount, details)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, &InsufficientBalanceError{Required: amount, Available: user.WalletBalance}
		}
		return nil, err
	}
	return withdrawal, nil
}

func (s *WalletService) ListWithdrawals(ctx context.Context, actor models.Actor) ([]models.Withdrawal, error) {
	userID := actor.ID
	return s.withdrawals.List(ctx, &userID, "")
}

func (s *WalletService) ListAllWithdrawals(ctx context.Context, status string) ([]models.Withdrawal, error) {
	return s.withdrawals.List(ctx, nil, strings.TrimSpace(status))
}

// TransitionWithdrawal advances a withdrawal on an admin's instruction.
func (s *WalletService) TransitionWithdrawal(
	ctx context.Context,
	actor models.Actor,
	withdrawalID uuid.UUID,
	requested string,
	reference *string,
) (*models.Withdrawal, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	next := models.WithdrawalStatus(strings.ToLower(strings.TrimSpace(requested)))
	switch next {
	case models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalFailed:
	default:
		return nil, ErrInvalidStatus
	}

	current, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if !legalWithdrawalTransition(current.Status, next) {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.store.TransitionWithdrawal(ctx, withdrawalID, current.Status, next, trimmedOrNil(reference))
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.logger.Info().
		Str("withdrawal_id", withdrawalID.String()).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Str("admin_id", actor.ID.String()).
		Msg("withdrawal transitioned")
	return updated, nil
}

func legalWithdrawalTransition(current, next models.WithdrawalStatus) bool {
	switch current {
	case models.WithdrawalRequested:
		return next == models.WithdrawalProcessing || next == models.WithdrawalFailed
	case models.WithdrawalProcessing:
		return next == models.WithdrawalCompleted || next == models.WithdrawalFailed
	default:
		return false
	}
}
