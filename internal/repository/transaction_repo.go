package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

const transactionColumns = `id, user_id, session_id, amount, type, status, reference, description, created_at`

type CreateTransactionInput struct {
	UserID      uuid.UUID
	SessionID   *uuid.UUID
	Amount      int64
	Type        models.TransactionType
	Status      models.TransactionStatus
	Reference   string
	Description *string
}

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var transaction models.Transaction
	err := row.Scan(
		&transaction.ID,
		&transaction.UserID,
		&transaction.SessionID,
		&transaction.Amount,
		&transaction.Type,
		&transaction.Status,
		&transaction.Reference,
		&transaction.Description,
		&transaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *TransactionRepository) Create(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, session_id, amount, type, status, reference, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns

	return scanTransaction(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.SessionID,
		input.Amount,
		input.Type,
		input.Status,
		input.Reference,
		input.Description,
	))
}

func (r *TransactionRepository) GetPaymentForSession(ctx context.Context, sessionID uuid.UUID) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE session_id = $1 AND type = 'payment'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanTransaction(r.db.QueryRow(ctx, query, sessionID))
}

func (r *TransactionRepository) ListPaymentsBySessionIDs(
	ctx context.Context,
	sessionIDs []uuid.UUID,
) (map[uuid.UUID]models.Transaction, error) {
	payments := make(map[uuid.UUID]models.Transaction, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (session_id) ` + transactionColumns + `
		FROM transactions
		WHERE session_id = ANY($1) AND type = 'payment'
		ORDER BY session_id, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if payment.SessionID != nil {
			payments[*payment.SessionID] = *payment
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *TransactionRepository) UpdateStatusByReference(
	ctx context.Context,
	reference string,
	txType models.TransactionType,
	currentStatus models.TransactionStatus,
	nextStatus models.TransactionStatus,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $4
		WHERE reference = $1 AND type = $2 AND status = $3
	`, reference, txType, currentStatus, nextStatus)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
