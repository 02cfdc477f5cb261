package models

import (
	"time"

	"github.com/google/uuid"
)

const DeletedMessageText = "[Message deleted]"

type ChatMessage struct {
	ID                   uuid.UUID  `json:"id"`
	SessionID            uuid.UUID  `json:"session_id"`
	SenderID             uuid.UUID  `json:"sender_id"`
	Message              string     `json:"message"`
	RepliedTo            *uuid.UUID `json:"replied_to"`
	IsFlagged            bool       `json:"is_flagged"`
	IsFlaggedContent     bool       `json:"is_flagged_content"`
	FlaggedContentReason *string    `json:"flagged_content_reason"`
	CreatedAt            time.Time  `json:"created_at"`
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
	ReportActioned  ReportStatus = "actioned"
)

type Report struct {
	ID        uuid.UUID    `json:"id"`
	MessageID uuid.UUID    `json:"message_id"`
	FlaggedBy uuid.UUID    `json:"flagged_by"`
	Reason    string       `json:"reason"`
	Status    ReportStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

type RestrictedKeyword struct {
	ID        uuid.UUID `json:"id"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatPhase string

const (
	ChatNotStarted ChatPhase = "not_started"
	ChatActive     ChatPhase = "active"
	ChatEnded      ChatPhase = "ended"
)

// ChatWindow is the countdown view of a session's chat.
type ChatWindow struct {
	SessionID         uuid.UUID `json:"session_id"`
	Phase             ChatPhase `json:"phase"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	SecondsUntilStart int64     `json:"seconds_until_start"`
	SecondsRemaining  int64     `json:"seconds_remaining"`
}
