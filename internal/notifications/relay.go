package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/rs/zerolog"
)

const (
	linkDashboard = "/dashboard"

	textConfirmed    = "Session confirmed! You can now start chatting."
	textCancelled    = "Session has been cancelled."
	textCompleted    = "Session completed."
	textReviewPrompt = "Session has ended. Please provide your review."
)

type sessionReader interface {
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
}

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Sink delivers one notification. Delivery is best effort.
type Sink interface {
	Deliver(ctx context.Context, notification models.Notification) error
}

// MessageSink pushes a new chat message to the session's connected parties.
type MessageSink interface {
	DeliverMessage(ctx context.Context, recipients []uuid.UUID, message *models.ChatMessage) error
}

// Relay turns change events into per-user notifications.
type Relay struct {
	source   events.Source
	sessions sessionReader
	users    userReader
	sink     Sink
	live     MessageSink
	logger   zerolog.Logger
}

func NewRelay(
	source events.Source,
	sessions sessionReader,
	users userReader,
	sink Sink,
	live MessageSink,
	logger zerolog.Logger,
) *Relay {
	return &Relay{
		source:   source,
		sessions: sessions,
		users:    users,
		sink:     sink,
		live:     live,
		logger:   logger,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	stream, cancel, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			r.Handle(ctx, event)
		}
	}
}

// Handle delivers everything derived from one event and logs failures.
func (r *Relay) Handle(ctx context.Context, event events.Event) {
	log := r.logger.With().Str("event", string(event.Type)).Str("session_id", event.SessionID.String()).Logger()

	if event.Type == events.MessageCreated && event.Message != nil && r.live != nil {
		session, err := r.session(ctx, event)
		if err != nil {
			log.Warn().Err(err).Msg("resolve session for live message")
		} else {
			recipients := []uuid.UUID{session.ClientID, session.StudentID}
			if err := r.live.DeliverMessage(ctx, recipients, event.Message); err != nil {
				log.Warn().Err(err).Msg("deliver live message")
			}
		}
	}

	notifications, err := r.Build(ctx, event)
	if err != nil {
		log.Warn().Err(err).Msg("build notifications")
		return
	}
	for _, notification := range notifications {
		if err := r.sink.Deliver(ctx, notification); err != nil {
			log.Warn().Err(err).Str("user_id", notification.UserID.String()).Msg("deliver notification")
		}
	}
}

// Build derives the notifications for event. Authors never hear about their own messages.
func (r *Relay) Build(ctx context.Context, event events.Event) ([]models.Notification, error) {
	session, err := r.session(ctx, event)
	if err != nil {
		return nil, err
	}

	notify := func(userID uuid.UUID, kind, text, link string) models.Notification {
		return models.Notification{
			UserID:    userID,
			Type:      kind,
			Message:   text,
			Link:      link,
			SessionID: session.ID,
			CreatedAt: event.OccurredAt,
		}
	}

	switch event.Type {
	case events.MessageCreated:
		if event.Message == nil {
			return nil, nil
		}
		name := r.displayName(ctx, event.Message.SenderID)
		link := fmt.Sprintf("/chat/%s", session.ID)
		result := make([]models.Notification, 0, 1)
		for _, party := range []uuid.UUID{session.ClientID, session.StudentID} {
			if party == event.Message.SenderID {
				continue
			}
			result = append(result, notify(party, "message", "New message from "+name, link))
		}
		return result, nil

	case events.SessionCreated:
		name := r.displayName(ctx, session.ClientID)
		return []models.Notification{
			notify(session.StudentID, "session", "New session booked by "+name, linkDashboard),
		}, nil

	case events.SessionStatusChanged:
		switch event.NewStatus {
		case models.SessionConfirmed:
			return []models.Notification{
				notify(session.ClientID, "session", textConfirmed, linkDashboard),
				notify(session.StudentID, "session", textConfirmed, linkDashboard),
			}, nil
		case models.SessionCancelled:
			return []models.Notification{
				notify(session.ClientID, "session", textCancelled, linkDashboard),
				notify(session.StudentID, "session", textCancelled, linkDashboard),
			}, nil
		case models.SessionCompleted:
			return []models.Notification{
				notify(session.ClientID, "review", textReviewPrompt, fmt.Sprintf("/rating-review/%s", session.ID)),
				notify(session.StudentID, "session", textCompleted, linkDashboard),
			}, nil
		}
	}
	return nil, nil
}

func (r *Relay) session(ctx context.Context, event events.Event) (*models.Session, error) {
	if event.Session != nil {
		return event.Session, nil
	}
	return r.sessions.GetByID(ctx, event.SessionID)
}

func (r *Relay) displayName(ctx context.Context, userID uuid.UUID) string {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil || user.Name == "" {
		return "your session partner"
	}
	return user.Name
}
