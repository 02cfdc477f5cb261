package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/rs/zerolog"
)

type reviewStore interface {
	Create(
		ctx context.Context,
		sessionID uuid.UUID,
		reviewerID uuid.UUID,
		rating int,
		comment *string,
	) (*models.Review, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Review, error)
	ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error)
}

type sessionSettler interface {
	Settle(ctx context.Context, sessionID uuid.UUID) (*models.Settlement, error)
}

type ReviewService struct {
	sessions  sessionReader
	completer sessionCompleter
	reviews   reviewStore
	settler   sessionSettler
	logger    zerolog.Logger
	now       func() time.Time
}

func NewReviewService(
	sessions sessionReader,
	completer sessionCompleter,
	reviews reviewStore,
	settler sessionSettler,
	logger zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		sessions:  sessions,
		completer: completer,
		reviews:   reviews,
		settler:   settler,
		logger:    logger,
		now:       time.Now,
	}
}

type SubmitReviewInput struct {
	Rating  int
	Comment *string
}

// Submit stores a review. A learner's review also releases the tutor payout;
// a payout failure is reported in the result and never undoes the review.
func (s *ReviewService) Submit(
	ctx context.Context,
	actor models.Actor,
	sessionID uuid.UUID,
	input SubmitReviewInput,
) (*models.ReviewResult, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParty(actor.ID) {
		return nil, ErrForbidden
	}

	switch session.Status {
	case models.SessionCompleted:
	case models.SessionConfirmed:
		if s.now().Before(session.EndsAt()) {
			return nil, ErrSessionNotFinished
		}
		if _, _, err := s.completer.CompleteIfDue(ctx, session.ID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrSessionNotFinished
	}

	review, err := s.reviews.Create(ctx, session.ID, actor.ID, input.Rating, trimmedOrNil(input.Comment))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	result := &models.ReviewResult{Review: review}
	if actor.ID != session.ClientID || s.settler == nil {
		return result, nil
	}

	settlement, err := s.settler.Settle(ctx, session.ID)
	switch {
	case err == nil:
		result.Settlement = settlement
	case errors.Is(err, ErrAlreadySettled):
		result.Settlement = &models.Settlement{SessionID: session.ID, Status: models.SettlementSkipped}
	default:
		s.logger.Error().Err(err).Str("session_id", session.ID.String()).Msg("settlement after review failed")
		if settlement == nil {
			settlement = &models.Settlement{SessionID: session.ID, Status: models.SettlementFailed, Error: err.Error()}
		}
		result.Settlement = settlement
	}
	return result, nil
}

func (s *ReviewService) ListForSession(
	ctx context.Context,
	actor models.Actor,
	sessionID uuid.UUID,
) ([]models.Review, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(actor, session) {
		return nil, ErrForbidden
	}
	return s.reviews.ListBySession(ctx, sessionID)
}

func (s *ReviewService) ForTutor(ctx context.Context, tutorID uuid.UUID) (*models.TutorReviews, error) {
	reviews, err := s.reviews.ListForTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	summary := &models.TutorReviews{
		TutorID: tutorID,
		Count:   len(reviews),
		Reviews: reviews,
	}
	if len(reviews) > 0 {
		total := 0
		for _, review := range reviews {
			total += review.Rating
		}
		summary.AverageRating = math.Round(float64(total)/float64(len(reviews))*100) / 100
	}
	return summary, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
