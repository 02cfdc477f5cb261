package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrStaleState        = errors.New("row changed concurrently")
)

// Store runs the multi-row writes that must land together or not at all.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type PaidSessionInput struct {
	Session CreateSessionInput
	Payment CreateTransactionInput
	// DebitWallet takes the amount from the client's wallet in the same transaction.
	DebitWallet bool
}

// CreatePaidSession writes a session and its payment transaction together.
func (s *Store) CreatePaidSession(ctx context.Context, input PaidSessionInput) (*models.SessionDetail, error) {
	var detail models.SessionDetail
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if input.DebitWallet {
			_, err := NewUserRepository(tx).DebitWallet(ctx, input.Session.ClientID, input.Session.Amount)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInsufficientFunds
			}
			if err != nil {
				return err
			}
		}

		session, err := NewSessionRepository(tx).Create(ctx, input.Session)
		if err != nil {
			return err
		}

		payment := input.Payment
		payment.SessionID = &session.ID
		transaction, err := NewTransactionRepository(tx).Create(ctx, payment)
		if err != nil {
			return err
		}

		detail = models.SessionDetail{Session: *session, Payment: transaction}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

type SettleInput struct {
	SessionID    uuid.UUID
	TutorID      uuid.UUID
	Payout       int64
	Reference    string
	Description  string
	CreditWallet bool
}

// CompleteSettlement books the tutor earning and closes a session claimed for settlement.
func (s *Store) CompleteSettlement(ctx context.Context, input SettleInput) (*models.Session, *models.Transaction, error) {
	var session *models.Session
	var earning *models.Transaction
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		session, err = NewSessionRepository(tx).MarkSettled(ctx, input.SessionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStaleState
		}
		if err != nil {
			return err
		}

		description := input.Description
		earning, err = NewTransactionRepository(tx).Create(ctx, CreateTransactionInput{
			UserID:      input.TutorID,
			SessionID:   &input.SessionID,
			Amount:      input.Payout,
			Type:        models.TransactionEarning,
			Status:      models.TransactionCompleted,
			Reference:   input.Reference,
			Description: &description,
		})
		if err != nil {
			return err
		}

		if input.CreditWallet {
			if _, err := NewUserRepository(tx).CreditWallet(ctx, input.TutorID, input.Payout); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return session, earning, nil
}

// RequestWithdrawal reserves the amount from the wallet and records the request.
func (s *Store) RequestWithdrawal(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	details models.BankDetails,
) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := NewUserRepository(tx).DebitWallet(ctx, userID, amount)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientFunds
		}
		if err != nil {
			return err
		}

		withdrawal, err = NewWithdrawalRepository(tx).Create(ctx, userID, amount, details)
		if err != nil {
			return err
		}

		description := "Withdrawal to " + details.AccountName
		_, err = NewTransactionRepository(tx).Create(ctx, CreateTransactionInput{
			UserID:      userID,
			Amount:      amount,
			Type:        models.TransactionWithdrawal,
			Status:      models.TransactionPending,
			Reference:   withdrawal.ID.String(),
			Description: &description,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// TransitionWithdrawal moves a withdrawal from current to next. A failed
// withdrawal refunds the wallet; a completed one settles its transaction.
func (s *Store) TransitionWithdrawal(
	ctx context.Context,
	id uuid.UUID,
	current models.WithdrawalStatus,
	next models.WithdrawalStatus,
	reference *string,
) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		withdrawal, err = NewWithdrawalRepository(tx).UpdateStatusIfCurrent(ctx, id, current, next, reference)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStaleState
		}
		if err != nil {
			return err
		}

		transactions := NewTransactionRepository(tx)
		switch next {
		case models.WithdrawalCompleted:
			_, err = transactions.UpdateStatusByReference(
				ctx,
				withdrawal.ID.String(),
				models.TransactionWithdrawal,
				models.TransactionPending,
				models.TransactionCompleted,
			)
		case models.WithdrawalFailed:
			if _, err = NewUserRepository(tx).CreditWallet(ctx, withdrawal.UserID, withdrawal.Amount); err != nil {
				return err
			}
			_, err = transactions.UpdateStatusByReference(
				ctx,
				withdrawal.ID.String(),
				models.TransactionWithdrawal,
				models.TransactionPending,
				models.TransactionFailed,
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// RecordQuizAttempt stores the attempt and awards the badge on a pass.
func (s *Store) RecordQuizAttempt(ctx context.Context, input CreateQuizAttemptInput) (*models.QuizAttempt, error) {
	var attempt *models.QuizAttempt
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		attempt, err = NewQuizRepository(tx).CreateAttempt(ctx, input)
		if err != nil {
			return err
		}
		if input.Passed {
			return NewUserRepository(tx).AwardBadge(ctx, input.UserID, input.Score)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// ReconcileGatewayPayment marks sessions and payment rows paid for a gateway reference.
func (s *Store) ReconcileGatewayPayment(ctx context.Context, reference string) (int64, error) {
	var updated int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		sessions, err := NewSessionRepository(tx).MarkPaidByReference(ctx, reference)
		if err != nil {
			return err
		}
		payments, err := NewTransactionRepository(tx).UpdateStatusByReference(
			ctx,
			reference,
			models.TransactionPayment,
			models.TransactionPending,
			models.TransactionCompleted,
		)
		if err != nil {
			return err
		}
		updated = sessions + payments
		return nil
	})
	return updated, err
}
