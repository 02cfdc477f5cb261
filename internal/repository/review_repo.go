package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row rowScanner) (*models.Review, error) {
	var review models.Review
	if err := row.Scan(
		&review.ID,
		&review.SessionID,
		&review.ReviewerID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &review, nil
}

// Create returns ErrDuplicate when the reviewer already reviewed the session.
func (r *ReviewRepository) Create(
	ctx context.Context,
	sessionID uuid.UUID,
	reviewerID uuid.UUID,
	rating int,
	comment *string,
) (*models.Review, error) {
	query := `
		INSERT INTO reviews (session_id, reviewer_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, reviewer_id, rating, comment, created_at
	`
	review, err := scanReview(r.db.QueryRow(ctx, query, sessionID, reviewerID, rating, comment))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Review, error) {
	return r.list(ctx, `
		SELECT id, session_id, reviewer_id, rating, comment, created_at
		FROM reviews
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
}

// ListForTutor returns learner reviews of sessions the tutor taught.
func (r *ReviewRepository) ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error) {
	return r.list(ctx, `
		SELECT rv.id, rv.session_id, rv.reviewer_id, rv.rating, rv.comment, rv.created_at
		FROM reviews rv
		JOIN sessions s ON s.id = rv.session_id
		WHERE s.student_id = $1 AND rv.reviewer_id = s.client_id
		ORDER BY rv.created_at DESC
	`, tutorID)
}

func (r *ReviewRepository) list(ctx context.Context, query string, arg any) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}
