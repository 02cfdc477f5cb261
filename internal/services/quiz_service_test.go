package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/jackc/pgx/v5"
)

var testDepartmentID = uuid.MustParse("4f506172-8394-4a5b-bc6d-7e8f90010205")

type memoryQuiz struct {
	questions []models.Question
	latest    *models.QuizAttempt
	recorded  []repository.CreateQuizAttemptInput
	badge     bool
}

func (m *memoryQuiz) ListQuestions(_ context.Context, departmentID uuid.UUID, limit int) ([]models.Question, error) {
	var out []models.Question
	for _, question := range m.questions {
		if question.DepartmentID == departmentID && len(out) < limit {
			out = append(out, question)
		}
	}
	return out, nil
}

func (m *memoryQuiz) CountQuestions(_ context.Context, departmentID uuid.UUID) (int, error) {
	count := 0
	for _, question := range m.questions {
		if question.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func (m *memoryQuiz) GetQuestionsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Question, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Question
	for _, question := range m.questions {
		if wanted[question.ID] {
			out = append(out, question)
		}
	}
	return out, nil
}

func (m *memoryQuiz) LatestAttempt(_ context.Context, _ uuid.UUID) (*models.QuizAttempt, error) {
	if m.latest == nil {
		return nil, pgx.ErrNoRows
	}
	return m.latest, nil
}

func (m *memoryQuiz) RecordQuizAttempt(_ context.Context, input repository.CreateQuizAttemptInput) (*models.QuizAttempt, error) {
	m.recorded = append(m.recorded, input)
	if input.Passed {
		m.badge = true
	}
	return &models.QuizAttempt{
		ID:             uuid.New(),
		UserID:         input.UserID,
		DepartmentID:   input.DepartmentID,
		Score:          input.Score,
		TotalQuestions: input.TotalQuestions,
		Passed:         input.Passed,
		NextAttemptAt:  input.NextAttemptAt,
	}, nil
}

func quizCandidate() *models.User {
	department := testDepartmentID
	return &models.User{ID: testTutorID, Role: models.RoleStudent, Status: models.UserActive, IsVerified: true, DepartmentID: &department}
}

func departmentQuestions(n int) []models.Question {
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.Question{
			ID:            uuid.New(),
			DepartmentID:  testDepartmentID,
			Question:      "Which organelle produces ATP?",
			Options:       []string{"Nucleus", "Mitochondrion", "Ribosome", "Golgi body"},
			CorrectAnswer: 1,
		})
	}
	return questions
}

func newTestQuizService(user *models.User, quiz *memoryQuiz) *QuizService {
	service := NewQuizService(&stubUserReader{users: map[uuid.UUID]*models.User{user.ID: user}}, quiz, quiz)
	service.now = func() time.Time { return testNow }
	return service
}

func answersWithCorrect(questions []models.Question, correct int) map[uuid.UUID]int {
	answers := make(map[uuid.UUID]int, len(questions))
	for i, question := range questions {
		if i < correct {
			answers[question.ID] = question.CorrectAnswer
		} else {
			answers[question.ID] = question.CorrectAnswer + 1
		}
	}
	return answers
}

func TestQuizScoreRounds(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{correct: 11, total: 15, want: 73},
		{correct: 10, total: 15, want: 67},
		{correct: 15, total: 15, want: 100},
		{correct: 0, total: 0, want: 0},
	}
	for _, tc := range cases {
		if got := QuizScore(tc.correct, tc.total); got != tc.want {
			t.Fatalf("QuizScore(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestSubmitQuizPassAwardsBadge(t *testing.T) {
	questions := departmentQuestions(15)
	quiz := &memoryQuiz{questions: questions}
	service := newTestQuizService(quizCandidate(), quiz)

	attempt, err := service.Submit(context.Background(), tutor(), answersWithCorrect(questions, 11))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !attempt.Passed || attempt.Score != 73 || attempt.NextAttemptAt != nil {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if !quiz.badge {
		t.Fatal("expected badge to be awarded")
	}
}

func TestSubmitQuizFailSetsCooldown(t *testing.T) {
	questions := departmentQuestions(15)
	quiz := &memoryQuiz{questions: questions}
	service := newTestQuizService(quizCandidate(), quiz)

	attempt, err := service.Submit(context.Background(), tutor(), answersWithCorrect(questions, 10))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if attempt.Passed || attempt.Score != 67 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if attempt.NextAttemptAt == nil || !attempt.NextAttemptAt.Equal(testNow.Add(24*time.Hour)) {
		t.Fatalf("expected retake in 24h, got %v", attempt.NextAttemptAt)
	}
	if quiz.badge {
		t.Fatal("failed attempt must not award the badge")
	}
}

func TestQuizCooldownBlocksRetake(t *testing.T) {
	questions := departmentQuestions(15)
	next := testNow.Add(3 * time.Hour)
	quiz := &memoryQuiz{questions: questions, latest: &models.QuizAttempt{Passed: false, NextAttemptAt: &next}}
	service := newTestQuizService(quizCandidate(), quiz)

	if _, err := service.Questions(context.Background(), tutor()); !errors.Is(err, ErrQuizCooldown) {
		t.Fatalf("expected ErrQuizCooldown, got %v", err)
	}

	expired := testNow.Add(-time.Minute)
	quiz.latest.NextAttemptAt = &expired
	listed, err := service.Questions(context.Background(), tutor())
	if err != nil {
		t.Fatalf("Questions after cooldown: %v", err)
	}
	if len(listed) != QuizQuestionCount {
		t.Fatalf("expected %d questions, got %d", QuizQuestionCount, len(listed))
	}
}

func TestQuizEligibility(t *testing.T) {
	unverified := quizCandidate()
	unverified.IsVerified = false
	badged := quizCandidate()
	badged.Badge = true
	noDepartment := quizCandidate()
	noDepartment.DepartmentID = nil
	aspirant := quizCandidate()
	aspirant.Role = models.RoleAspirant

	for name, user := range map[string]*models.User{
		"unverified":     unverified,
		"already badged": badged,
		"no department":  noDepartment,
		"aspirant":       aspirant,
	} {
		t.Run(name, func(t *testing.T) {
			service := newTestQuizService(user, &memoryQuiz{questions: departmentQuestions(15)})
			if _, err := service.Questions(context.Background(), tutor()); !errors.Is(err, ErrQuizNotEligible) {
				t.Fatalf("expected ErrQuizNotEligible, got %v", err)
			}
		})
	}
}

func TestSubmitQuizRejectsForeignQuestions(t *testing.T) {
	questions := departmentQuestions(3)
	questions[2].DepartmentID = uuid.New()
	quiz := &memoryQuiz{questions: questions}
	service := newTestQuizService(quizCandidate(), quiz)

	if _, err := service.Submit(context.Background(), tutor(), answersWithCorrect(questions, 3)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	unknown := map[uuid.UUID]int{uuid.New(): 1}
	if _, err := service.Submit(context.Background(), tutor(), unknown); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown question, got %v", err)
	}
	if len(quiz.recorded) != 0 {
		t.Fatal("expected no attempt to be recorded")
	}
}

func TestSubmitQuizRequiresEveryDrawnQuestion(t *testing.T) {
	questions := departmentQuestions(15)
	quiz := &memoryQuiz{questions: questions}
	service := newTestQuizService(quizCandidate(), quiz)

	if _, err := service.Submit(context.Background(), tutor(), answersWithCorrect(questions[:1], 1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a single answer, got %v", err)
	}
	if _, err := service.Submit(context.Background(), tutor(), answersWithCorrect(questions[:14], 14)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 14 of 15 answers, got %v", err)
	}
	if len(quiz.recorded) != 0 || quiz.badge {
		t.Fatal("partial submissions must not record an attempt or award the badge")
	}
}

func TestSubmitQuizSmallDepartmentUsesAvailableQuestions(t *testing.T) {
	questions := departmentQuestions(5)
	quiz := &memoryQuiz{questions: questions}
	service := newTestQuizService(quizCandidate(), quiz)

	attempt, err := service.Submit(context.Background(), tutor(), answersWithCorrect(questions, 4))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if attempt.TotalQuestions != 5 || attempt.Score != 80 || !attempt.Passed {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
}
