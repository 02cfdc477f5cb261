package models

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalStatus string

const (
	WithdrawalRequested  WithdrawalStatus = "requested"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalFailed     WithdrawalStatus = "failed"
)

type Withdrawal struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	Amount        int64            `json:"amount"`
	BankCode      string           `json:"bank_code"`
	AccountNumber string           `json:"account_number"`
	AccountName   string           `json:"account_name"`
	Status        WithdrawalStatus `json:"status"`
	Reference     *string          `json:"reference"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type WalletSummary struct {
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// CheckoutRequest describes the hosted checkout the client opens.
type CheckoutRequest struct {
	PublicKey   string            `json:"public_key"`
	TxRef       string            `json:"tx_ref"`
	Amount      string            `json:"amount"`
	AmountMinor int64             `json:"amount_minor"`
	Currency    string            `json:"currency"`
	Options     string            `json:"payment_options"`
	Customer    CheckoutCustomer  `json:"customer"`
	Meta        map[string]string `json:"meta"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
}

type CheckoutCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
