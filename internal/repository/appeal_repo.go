package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

const appealColumns = `id, user_id, type, subject, description, status, admin_response, created_at, updated_at`

type CreateAppealInput struct {
	UserID      uuid.UUID
	Type        string
	Subject     string
	Description string
}

type AppealRepository struct {
	db DBTX
}

func NewAppealRepository(db DBTX) *AppealRepository {
	return &AppealRepository{db: db}
}

func scanAppeal(row rowScanner) (*models.Appeal, error) {
	var appeal models.Appeal
	err := row.Scan(
		&appeal.ID,
		&appeal.UserID,
		&appeal.Type,
		&appeal.Subject,
		&appeal.Description,
		&appeal.Status,
		&appeal.AdminResponse,
		&appeal.CreatedAt,
		&appeal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appeal, nil
}

func (r *AppealRepository) Create(ctx context.Context, input CreateAppealInput) (*models.Appeal, error) {
	query := `
		INSERT INTO appeals (user_id, type, subject, description, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + appealColumns
	return scanAppeal(r.db.QueryRow(ctx, query, input.UserID, input.Type, input.Subject, input.Description))
}

// List returns every appeal when userID is nil.
func (r *AppealRepository) List(ctx context.Context, userID *uuid.UUID, status string) ([]models.Appeal, error) {
	query := `
		SELECT ` + appealColumns + `
		FROM appeals
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appeals := make([]models.Appeal, 0)
	for rows.Next() {
		appeal, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		appeals = append(appeals, *appeal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appeals, nil
}

func (r *AppealRepository) Respond(
	ctx context.Context,
	id uuid.UUID,
	status models.AppealStatus,
	response string,
) (*models.Appeal, error) {
	query := `
		UPDATE appeals
		SET status = $2, admin_response = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appealColumns
	return scanAppeal(r.db.QueryRow(ctx, query, id, status, response))
}
