package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/jackc/pgx/v5"
)

const (
	QuizQuestionCount = 15
	QuizPassMark      = 70
	quizCooldown      = 24 * time.Hour
)

type quizStore interface {
	ListQuestions(ctx context.Context, departmentID uuid.UUID, limit int) ([]models.Question, error)
	CountQuestions(ctx context.Context, departmentID uuid.UUID) (int, error)
	GetQuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Question, error)
	LatestAttempt(ctx context.Context, userID uuid.UUID) (*models.QuizAttempt, error)
}

type quizRecorder interface {
	RecordQuizAttempt(ctx context.Context, input repository.CreateQuizAttemptInput) (*models.QuizAttempt, error)
}

// QuizService gates tutor certification behind a department quiz.
type QuizService struct {
	users    userReader
	quiz     quizStore
	recorder quizRecorder
	now      func() time.Time
}

func NewQuizService(users userReader, quiz quizStore, recorder quizRecorder) *QuizService {
	return &QuizService{
		users:    users,
		quiz:     quiz,
		recorder: recorder,
		now:      time.Now,
	}
}

func (s *QuizService) Questions(ctx context.Context, actor models.Actor) ([]models.Question, error) {
	user, err := s.eligibleUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.quiz.ListQuestions(ctx, *user.DepartmentID, QuizQuestionCount)
}

// Submit grades answers keyed by question id. Every drawn question must be
// answered, so the score is always out of the full quiz. Passing awards the badge.
func (s *QuizService) Submit(
	ctx context.Context,
	actor models.Actor,
	answers map[uuid.UUID]int,
) (*models.QuizAttempt, error) {
	if len(answers) == 0 || len(answers) > QuizQuestionCount {
		return nil, ErrInvalidInput
	}

	user, err := s.eligibleUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	available, err := s.quiz.CountQuestions(ctx, *user.DepartmentID)
	if err != nil {
		return nil, err
	}
	if len(answers) != min(available, QuizQuestionCount) {
		return nil, ErrInvalidInput
	}

	ids := make([]uuid.UUID, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	questions, err := s.quiz.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(questions) != len(answers) {
		return nil, ErrInvalidInput
	}

	correct := 0
	for _, question := range questions {
		if question.DepartmentID != *user.DepartmentID {
			return nil, ErrInvalidInput
		}
		if answers[question.ID] == question.CorrectAnswer {
			correct++
		}
	}

	score := QuizScore(correct, len(questions))
	input := repository.CreateQuizAttemptInput{
		UserID:         user.ID,
		DepartmentID:   user.DepartmentID,
		Score:          score,
		TotalQuestions: len(questions),
		Passed:         score >= QuizPassMark,
	}
	if !input.Passed {
		next := s.now().Add(quizCooldown)
		input.NextAttemptAt = &next
	}
	return s.recorder.RecordQuizAttempt(ctx, input)
}

func QuizScore(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func (s *QuizService) eligibleUser(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStudent || !user.IsVerified || user.Badge || user.DepartmentID == nil {
		return nil, ErrQuizNotEligible
	}

	latest, err := s.quiz.LatestAttempt(ctx, user.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil && !latest.Passed && latest.NextAttemptAt != nil && s.now().Before(*latest.NextAttemptAt) {
		return nil, ErrQuizCooldown
	}
	return user, nil
}
