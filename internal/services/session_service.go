package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const overdueBatchSize = 100

type sessionStore interface {
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	UpdateStatusIfCurrent(
		ctx context.Context,
		sessionID uuid.UUID,
		currentStatus models.SessionStatus,
		nextStatus models.SessionStatus,
	) (*models.Session, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Session, error)
}

type paymentLookup interface {
	GetPaymentForSession(ctx context.Context, sessionID uuid.UUID) (*models.Transaction, error)
	ListPaymentsBySessionIDs(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]models.Transaction, error)
}

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SessionService struct {
	sessions sessionStore
	payments paymentLookup
	users    userReader
	events   events.Publisher
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSessionService(
	sessions sessionStore,
	payments paymentLookup,
	users userReader,
	publisher events.Publisher,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		payments: payments,
		users:    users,
		events:   publisher,
		logger:   logger,
		now:      time.Now,
	}
}

type BookingInput struct {
	StudentID   uuid.UUID
	Duration    int
	ScheduledAt time.Time
	Description *string
}

// ValidateBooking checks a booking request and returns the tutor and the fee in minor units.
func (s *SessionService) ValidateBooking(
	ctx context.Context,
	actor models.Actor,
	input BookingInput,
) (*models.User, int64, error) {
	if input.StudentID == uuid.Nil || input.StudentID == actor.ID {
		return nil, 0, ErrInvalidInput
	}
	if !ValidDuration(input.Duration) {
		return nil, 0, ErrInvalidInput
	}
	if !input.ScheduledAt.After(s.now()) {
		return nil, 0, ErrInvalidInput
	}

	tutor, err := s.users.GetByID(ctx, input.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrTutorNotFound
		}
		return nil, 0, err
	}
	if !tutor.Bookable() {
		return nil, 0, ErrTutorNotBookable
	}

	return tutor, AmountForDuration(input.Duration), nil
}

func (s *SessionService) Get(
	ctx context.Context,
	actor models.Actor,
	sessionID uuid.UUID,
) (*models.SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(actor, session) {
		return nil, ErrForbidden
	}

	detail := &models.SessionDetail{Session: *session}
	payment, err := s.payments.GetPaymentForSession(ctx, sessionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

func (s *SessionService) List(
	ctx context.Context,
	actor models.Actor,
	status string,
) ([]models.SessionDetail, error) {
	sessions, err := s.sessions.List(ctx, repository.SessionListFilter{
		ActorID: actor.ID,
		All:     actor.IsAdmin(),
		Status:  status,
	})
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	paymentsBySession, err := s.payments.ListPaymentsBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		detail := models.SessionDetail{Session: session}
		if payment, ok := paymentsBySession[session.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

// Transition applies a requested status change on behalf of actor.
func (s *SessionService) Transition(
	ctx context.Context,
	actor models.Actor,
	sessionID uuid.UUID,
	requestedStatus string,
) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(actor, session) {
		return nil, ErrForbidden
	}

	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if err := s.validateTransition(actor, session, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.sessions.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	actorID := actor.ID
	s.publish(ctx, events.NewStatusChanged(updated, session.Status, &actorID, s.now()))
	return updated, nil
}

// CompleteIfDue closes a confirmed session whose window has ended. Only the
// call that wins the conditional update reports true and emits an event.
func (s *SessionService) CompleteIfDue(ctx context.Context, sessionID uuid.UUID) (*models.Session, bool, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return s.completeIfDue(ctx, session)
}

func (s *SessionService) completeIfDue(ctx context.Context, session *models.Session) (*models.Session, bool, error) {
	if session.Status != models.SessionConfirmed || s.now().Before(session.EndsAt()) {
		return session, false, nil
	}

	updated, err := s.sessions.UpdateStatusIfCurrent(
		ctx,
		session.ID,
		models.SessionConfirmed,
		models.SessionCompleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			current, getErr := s.sessions.GetByID(ctx, session.ID)
			if getErr != nil {
				return nil, false, getErr
			}
			return current, false, nil
		}
		return nil, false, err
	}

	s.publish(ctx, events.NewStatusChanged(updated, models.SessionConfirmed, nil, s.now()))
	return updated, true, nil
}

// CompleteOverdue completes every confirmed session whose window has closed.
func (s *SessionService) CompleteOverdue(ctx context.Context) (int, error) {
	overdue, err := s.sessions.ListOverdue(ctx, s.now(), overdueBatchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range overdue {
		_, won, err := s.completeIfDue(ctx, &overdue[i])
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", overdue[i].ID.String()).Msg("complete overdue session")
			continue
		}
		if won {
			completed++
		}
	}
	return completed, nil
}

func (s *SessionService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", string(event.Type)).Str("session_id", event.SessionID.String()).Msg("publish event")
	}
}

func canAccessSession(actor models.Actor, session *models.Session) bool {
	return actor.IsAdmin() || session.IsParty(actor.ID)
}

func normalizeRequestedStatus(status string) (models.SessionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed":
		return models.SessionConfirmed, nil
	case "complete", "completed":
		return models.SessionCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.SessionCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func legalTransition(current, next models.SessionStatus) bool {
	if current.Terminal() {
		return false
	}
	switch current {
	case models.SessionPending:
		return next == models.SessionConfirmed || next == models.SessionCancelled
	case models.SessionConfirmed:
		return next == models.SessionCompleted || next == models.SessionCancelled
	default:
		return false
	}
}

func (s *SessionService) validateTransition(
	actor models.Actor,
	session *models.Session,
	nextStatus models.SessionStatus,
) error {
	if !legalTransition(session.Status, nextStatus) {
		return ErrInvalidStateTransition
	}
	if actor.IsAdmin() {
		return nil
	}

	switch actor.ID {
	case session.StudentID:
		switch nextStatus {
		case models.SessionConfirmed, models.SessionCancelled:
			return nil
		case models.SessionCompleted:
			if s.now().Before(session.EndsAt()) {
				return ErrInvalidStateTransition
			}
			return nil
		default:
			return ErrForbidden
		}
	case session.ClientID:
		if nextStatus != models.SessionCancelled {
			return ErrForbidden
		}
		if session.Status != models.SessionPending {
			return ErrInvalidStateTransition
		}
		return nil
	default:
		return ErrForbidden
	}
}
