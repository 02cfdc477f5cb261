package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

const withdrawalColumns = `id, user_id, amount, bank_code, account_number, account_name, status, reference,
	created_at, updated_at`

type WithdrawalRepository struct {
	db DBTX
}

func NewWithdrawalRepository(db DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func scanWithdrawal(row rowScanner) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := row.Scan(
		&withdrawal.ID,
		&withdrawal.UserID,
		&withdrawal.Amount,
		&withdrawal.BankCode,
		&withdrawal.AccountNumber,
		&withdrawal.AccountName,
		&withdrawal.Status,
		&withdrawal.Reference,
		&withdrawal.CreatedAt,
		&withdrawal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *WithdrawalRepository) Create(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	details models.BankDetails,
) (*models.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (user_id, amount, bank_code, account_number, account_name, status)
		VALUES ($1, $2, $3, $4, $5, 'requested')
		RETURNING ` + withdrawalColumns
	return scanWithdrawal(r.db.QueryRow(
		ctx,
		query,
		userID,
		amount,
		details.BankCode,
		details.AccountNumber,
		details.AccountName,
	))
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`
	return scanWithdrawal(r.db.QueryRow(ctx, query, id))
}

// List returns every withdrawal when userID is nil.
func (r *WithdrawalRepository) List(ctx context.Context, userID *uuid.UUID, status string) ([]models.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	withdrawals := make([]models.Withdrawal, 0)
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *withdrawal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *WithdrawalRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	id uuid.UUID,
	currentStatus models.WithdrawalStatus,
	nextStatus models.WithdrawalStatus,
	reference *string,
) (*models.Withdrawal, error) {
	query := `
		UPDATE withdrawals
		SET status = $3, reference = COALESCE($4, reference), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + withdrawalColumns
	return scanWithdrawal(r.db.QueryRow(ctx, query, id, currentStatus, nextStatus, reference))
}
