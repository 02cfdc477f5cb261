package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type TutorReviews struct {
	TutorID       uuid.UUID `json:"tutor_id"`
	AverageRating float64   `json:"average_rating"`
	Count         int       `json:"count"`
	Reviews       []Review  `json:"reviews"`
}

type SettlementStatus string

const (
	SettlementSkipped SettlementStatus = "skipped"
	SettlementSettled SettlementStatus = "settled"
	SettlementFailed  SettlementStatus = "failed"
)

// Settlement reports the outcome of releasing a session's funds to the tutor.
type Settlement struct {
	SessionID   uuid.UUID        `json:"session_id"`
	Status      SettlementStatus `json:"status"`
	Payout      int64            `json:"payout"`
	PlatformFee int64            `json:"platform_fee"`
	Method      string           `json:"method,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Earning     *Transaction     `json:"earning,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type ReviewResult struct {
	Review     *Review     `json:"review"`
	Settlement *Settlement `json:"settlement,omitempty"`
}
