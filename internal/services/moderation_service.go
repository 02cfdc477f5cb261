package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type reportStore interface {
	List(ctx context.Context, status string) ([]models.Report, error)
	UpdateStatus(ctx context.Context, reportID uuid.UUID, status models.ReportStatus) (*models.Report, error)
}

type userAdmin interface {
	List(ctx context.Context, filter repository.UserListFilter) ([]models.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) (*models.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type keywordStore interface {
	List(ctx context.Context) ([]models.RestrictedKeyword, error)
	Create(ctx context.Context, keyword string, category string) (*models.RestrictedKeyword, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type filterCache interface {
	Invalidate()
}

// ModerationService holds the admin-only tooling. Callers are checked for the admin role.
type ModerationService struct {
	reports  reportStore
	users    userAdmin
	appeals  appealStore
	keywords keywordStore
	filter   filterCache
	logger   zerolog.Logger
}

func NewModerationService(
	reports reportStore,
	users userAdmin,
	appeals appealStore,
	keywords keywordStore,
	filter filterCache,
	logger zerolog.Logger,
) *ModerationService {
	return &ModerationService{
		reports:  reports,
		users:    users,
		appeals:  appeals,
		keywords: keywords,
		filter:   filter,
		logger:   logger,
	}
}

func (s *ModerationService) ListReports(ctx context.Context, actor models.Actor, status string) ([]models.Report, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.reports.List(ctx, strings.TrimSpace(status))
}

func (s *ModerationService) ResolveReport(
	ctx context.Context,
	actor models.Actor,
	reportID uuid.UUID,
	status string,
) (*models.Report, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	next := models.ReportStatus(strings.ToLower(strings.TrimSpace(status)))
	switch next {
	case models.ReportReviewed, models.ReportDismissed, models.ReportActioned:
	default:
		return nil, ErrInvalidStatus
	}
	return s.reports.UpdateStatus(ctx, reportID, next)
}

func (s *ModerationService) ListUsers(
	ctx context.Context,
	actor models.Actor,
	filter repository.UserListFilter,
) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.users.List(ctx, filter)
}

func (s *ModerationService) SetUserStatus(
	ctx context.Context,
	actor models.Actor,
	userID uuid.UUID,
	status string,
) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	next := models.UserStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}
	if userID == actor.ID {
		return nil, ErrInvalidInput
	}

	user, err := s.users.UpdateStatus(ctx, userID, next)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("user_id", userID.String()).
		Str("status", string(next)).
		Str("admin_id", actor.ID.String()).
		Msg("user status changed")
	return user, nil
}

func (s *ModerationService) VerifyUser(ctx context.Context, actor models.Actor, userID uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.users.MarkVerified(ctx, userID)
}

func (s *ModerationService) ListAppeals(ctx context.Context, actor models.Actor, status string) ([]models.Appeal, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.appeals.List(ctx, nil, strings.TrimSpace(status))
}

func (s *ModerationService) RespondToAppeal(
	ctx context.Context,
	actor models.Actor,
	appealID uuid.UUID,
	status string,
	response string,
) (*models.Appeal, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	next := models.AppealStatus(strings.ToLower(strings.TrimSpace(status)))
	switch next {
	case models.AppealUnderReview, models.AppealResolved, models.AppealRejected:
	default:
		return nil, ErrInvalidStatus
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, ErrInvalidInput
	}
	return s.appeals.Respond(ctx, appealID, next, response)
}

func (s *ModerationService) ListKeywords(ctx context.Context, actor models.Actor) ([]models.RestrictedKeyword, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.keywords.List(ctx)
}

func (s *ModerationService) AddKeyword(
	ctx context.Context,
	actor models.Actor,
	keyword string,
	category string,
) (*models.RestrictedKeyword, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, ErrInvalidInput
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "academic"
	}

	created, err := s.keywords.Create(ctx, keyword, category)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.filter.Invalidate()
	return created, nil
}

func (s *ModerationService) DeleteKeyword(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	deleted, err := s.keywords.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}
	s.filter.Invalidate()
	return nil
}
