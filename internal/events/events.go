package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

type Type string

const (
	MessageCreated       Type = "message.created"
	SessionCreated       Type = "session.created"
	SessionStatusChanged Type = "session.status_changed"
)

// Event is one row change surfaced to the notification relay.
type Event struct {
	Type       Type                 `json:"type"`
	SessionID  uuid.UUID            `json:"session_id"`
	Session    *models.Session      `json:"session,omitempty"`
	Message    *models.ChatMessage  `json:"message,omitempty"`
	OldStatus  models.SessionStatus `json:"old_status,omitempty"`
	NewStatus  models.SessionStatus `json:"new_status,omitempty"`
	ActorID    *uuid.UUID           `json:"actor_id,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Source delivers events until ctx ends or the returned cancel func runs.
type Source interface {
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

type Bus interface {
	Publisher
	Source
	Close() error
}

func NewMessageCreated(session *models.Session, message *models.ChatMessage, occurredAt time.Time) Event {
	sender := message.SenderID
	return Event{
		Type:       MessageCreated,
		SessionID:  message.SessionID,
		Session:    session,
		Message:    message,
		ActorID:    &sender,
		OccurredAt: occurredAt,
	}
}

func NewSessionCreated(session *models.Session, occurredAt time.Time) Event {
	client := session.ClientID
	return Event{
		Type:       SessionCreated,
		SessionID:  session.ID,
		Session:    session,
		NewStatus:  session.Status,
		ActorID:    &client,
		OccurredAt: occurredAt,
	}
}

// NewStatusChanged records a transition. actor is nil for system transitions.
func NewStatusChanged(
	session *models.Session,
	oldStatus models.SessionStatus,
	actor *uuid.UUID,
	occurredAt time.Time,
) Event {
	return Event{
		Type:       SessionStatusChanged,
		SessionID:  session.ID,
		Session:    session,
		OldStatus:  oldStatus,
		NewStatus:  session.Status,
		ActorID:    actor,
		OccurredAt: occurredAt,
	}
}
