package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Payment status values written to sessions.payment_status.
const (
	PaymentStatusPending      = "pending"
	PaymentStatusCompleted    = "completed"
	PaymentStatusSettling     = "settling"
	PaymentStatusSettled      = "settled"
	PaymentStatusPayoutFailed = "payout_failed"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

type Session struct {
	ID               uuid.UUID     `json:"id"`
	ClientID         uuid.UUID     `json:"client_id"`
	StudentID        uuid.UUID     `json:"student_id"`
	Duration         int           `json:"duration"`
	ScheduledAt      time.Time     `json:"scheduled_at"`
	Amount           int64         `json:"amount"`
	Status           SessionStatus `json:"status"`
	PaymentStatus    *string       `json:"payment_status"`
	PaymentReference *string       `json:"payment_reference"`
	Description      *string       `json:"description"`
	EscrowReleasedAt *time.Time    `json:"escrow_released_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (s *Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.Duration) * time.Minute)
}

func (s *Session) IsParty(userID uuid.UUID) bool {
	return s.ClientID == userID || s.StudentID == userID
}

func (s *Session) PaymentStatusValue() string {
	if s.PaymentStatus == nil {
		return ""
	}
	return *s.PaymentStatus
}

type SessionDetail struct {
	Session
	Payment *Transaction `json:"payment,omitempty"`
}
