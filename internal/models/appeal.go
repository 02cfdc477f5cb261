package models

import (
	"time"

	"github.com/google/uuid"
)

type AppealStatus string

const (
	AppealPending     AppealStatus = "pending"
	AppealUnderReview AppealStatus = "under_review"
	AppealResolved    AppealStatus = "resolved"
	AppealRejected    AppealStatus = "rejected"
)

type Appeal struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id"`
	Type          string       `json:"type"`
	Subject       string       `json:"subject"`
	Description   string       `json:"description"`
	Status        AppealStatus `json:"status"`
	AdminResponse *string      `json:"admin_response"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
