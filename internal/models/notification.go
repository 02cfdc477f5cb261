package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}
