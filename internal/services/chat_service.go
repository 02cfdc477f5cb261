package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const defaultFlagReason = "Inappropriate content"

type sessionReader interface {
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
}

type sessionCompleter interface {
	CompleteIfDue(ctx context.Context, sessionID uuid.UUID) (*models.Session, bool, error)
}

type messageStore interface {
	Create(
		ctx context.Context,
		sessionID uuid.UUID,
		senderID uuid.UUID,
		text string,
		repliedTo *uuid.UUID,
	) (*models.ChatMessage, error)
	GetByID(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
	SoftDelete(ctx context.Context, messageID uuid.UUID, senderID uuid.UUID) (*models.ChatMessage, error)
}

type reportWriter interface {
	Create(ctx context.Context, messageID uuid.UUID, flaggedBy uuid.UUID, reason string) (*models.Report, error)
}

type messageChecker interface {
	Check(ctx context.Context, text string) (FilterVerdict, error)
}

type ChatService struct {
	sessions  sessionReader
	completer sessionCompleter
	messages  messageStore
	reports   reportWriter
	filter    messageChecker
	events    events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewChatService(
	sessions sessionReader,
	completer sessionCompleter,
	messages messageStore,
	reports reportWriter,
	filter messageChecker,
	publisher events.Publisher,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		completer: completer,
		messages:  messages,
		reports:   reports,
		filter:    filter,
		events:    publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type SendMessageInput struct {
	SessionID uuid.UUID
	Text      string
	RepliedTo *uuid.UUID
}

// ChatWindowAt places now relative to the session's scheduled window.
func ChatWindowAt(session *models.Session, now time.Time) models.ChatWindow {
	window := models.ChatWindow{
		SessionID: session.ID,
		StartsAt:  session.ScheduledAt,
		EndsAt:    session.EndsAt(),
	}

	switch {
	case now.Before(window.StartsAt):
		window.Phase = models.ChatNotStarted
		window.SecondsUntilStart = ceilSeconds(window.StartsAt.Sub(now))
		window.SecondsRemaining = ceilSeconds(window.EndsAt.Sub(now))
	case now.Before(window.EndsAt):
		window.Phase = models.ChatActive
		window.SecondsRemaining = ceilSeconds(window.EndsAt.Sub(now))
	default:
		window.Phase = models.ChatEnded
	}
	return window
}

func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}

func (s *ChatService) Window(
	ctx context.Context,
	actor models.Actor,
	sessionID uuid.UUID,
) (*models.ChatWindow, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(actor, session) {
		return nil, ErrForbidden
	}

	window := ChatWindowAt(session, s.now())
	if window.Phase == models.ChatEnded {
		s.completeIfDue(ctx, session)
	}
	return &window, nil
}

func (s *ChatService) List(
	ctx context.Context,
	actor models.Actor,
	sessionID uuid.UUID,
) ([]models.ChatMessage, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(actor, session) {
		return nil, ErrForbidden
	}
	return s.messages.ListBySession(ctx, sessionID)
}

func (s *ChatService) Send(
	ctx context.Context,
	actor models.Actor,
	input SendMessageInput,
) (*models.ChatMessage, error) {
	session, err := s.sessions.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParty(actor.ID) {
		return nil, ErrForbidden
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrInvalidInput
	}

	switch ChatWindowAt(session, s.now()).Phase {
	case models.ChatNotStarted:
		return nil, ErrChatNotStarted
	case models.ChatEnded:
		s.completeIfDue(ctx, session)
		return nil, ErrChatEnded
	}
	if session.Status != models.SessionConfirmed {
		return nil, ErrChatClosed
	}

	if input.RepliedTo != nil {
		parent, err := s.messages.GetByID(ctx, *input.RepliedTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidInput
			}
			return nil, err
		}
		if parent.SessionID != session.ID {
			return nil, ErrInvalidInput
		}
	}

	verdict, err := s.filter.Check(ctx, text)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return nil, &BlockedMessageError{Reason: verdict.Reason}
	}

	message, err := s.messages.Create(ctx, session.ID, actor.ID, text, input.RepliedTo)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewMessageCreated(session, message, s.now())); err != nil {
			s.logger.Warn().Err(err).Str("message_id", message.ID.String()).Msg("publish message created")
		}
	}
	return message, nil
}

// SoftDelete blanks the sender's own message and keeps the row.
func (s *ChatService) SoftDelete(
	ctx context.Context,
	actor models.Actor,
	messageID uuid.UUID,
) (*models.ChatMessage, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != actor.ID {
		return nil, ErrForbidden
	}

	deleted, err := s.messages.SoftDelete(ctx, messageID, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return deleted, nil
}

// Flag files a moderation report against someone else's message.
func (s *ChatService) Flag(
	ctx context.Context,
	actor models.Actor,
	messageID uuid.UUID,
	reason string,
) (*models.Report, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID == actor.ID {
		return nil, ErrForbidden
	}

	session, err := s.sessions.GetByID(ctx, message.SessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(actor, session) {
		return nil, ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultFlagReason
	}
	return s.reports.Create(ctx, messageID, actor.ID, reason)
}

func (s *ChatService) completeIfDue(ctx context.Context, session *models.Session) {
	if session.Status != models.SessionConfirmed || s.completer == nil {
		return
	}
	if _, _, err := s.completer.CompleteIfDue(ctx, session.ID); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID.String()).Msg("complete ended session")
	}
}
