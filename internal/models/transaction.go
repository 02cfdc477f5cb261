package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionPayment    TransactionType = "payment"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionEarning    TransactionType = "earning"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction amounts are always positive minor units; direction follows Type.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	SessionID   *uuid.UUID        `json:"session_id"`
	Amount      int64             `json:"amount"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Reference   *string           `json:"reference"`
	Description *string           `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}
