package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

type CreateQuizAttemptInput struct {
	UserID         uuid.UUID
	DepartmentID   *uuid.UUID
	Score          int
	TotalQuestions int
	Passed         bool
	NextAttemptAt  *time.Time
}

type QuizRepository struct {
	db DBTX
}

func NewQuizRepository(db DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

// ListQuestions picks a random set of the department's questions.
func (r *QuizRepository) ListQuestions(ctx context.Context, departmentID uuid.UUID, limit int) ([]models.Question, error) {
	return r.listQuestions(ctx, `
		SELECT id, department_id, question, options, correct_answer
		FROM questions
		WHERE department_id = $1
		ORDER BY random()
		LIMIT $2
	`, departmentID, limit)
}

func (r *QuizRepository) CountQuestions(ctx context.Context, departmentID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE department_id = $1`, departmentID).Scan(&count)
	return count, err
}

func (r *QuizRepository) GetQuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Question, error) {
	return r.listQuestions(ctx, `
		SELECT id, department_id, question, options, correct_answer
		FROM questions
		WHERE id = ANY($1)
	`, ids)
}

func (r *QuizRepository) listQuestions(ctx context.Context, query string, args ...any) ([]models.Question, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		var question models.Question
		var options []byte
		if err := rows.Scan(
			&question.ID,
			&question.DepartmentID,
			&question.Question,
			&options,
			&question.CorrectAnswer,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &question.Options); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuizRepository) LatestAttempt(ctx context.Context, userID uuid.UUID) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, department_id, score, total_questions, passed, next_attempt_at, created_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(
		&attempt.ID,
		&attempt.UserID,
		&attempt.DepartmentID,
		&attempt.Score,
		&attempt.TotalQuestions,
		&attempt.Passed,
		&attempt.NextAttemptAt,
		&attempt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizRepository) CreateAttempt(ctx context.Context, input CreateQuizAttemptInput) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.db.QueryRow(ctx, `
		INSERT INTO quiz_attempts (user_id, department_id, score, total_questions, passed, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, department_id, score, total_questions, passed, next_attempt_at, created_at
	`,
		input.UserID,
		input.DepartmentID,
		input.Score,
		input.TotalQuestions,
		input.Passed,
		input.NextAttemptAt,
	).Scan(
		&attempt.ID,
		&attempt.UserID,
		&attempt.DepartmentID,
		&attempt.Score,
		&attempt.TotalQuestions,
		&attempt.Passed,
		&attempt.NextAttemptAt,
		&attempt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
