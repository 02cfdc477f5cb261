package models

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	ID            uuid.UUID `json:"id"`
	DepartmentID  uuid.UUID `json:"department_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"-"`
}

type QuizAttempt struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	Passed         bool       `json:"passed"`
	NextAttemptAt  *time.Time `json:"next_attempt_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
