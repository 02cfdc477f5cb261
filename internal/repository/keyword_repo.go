package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

type KeywordRepository struct {
	db DBTX
}

func NewKeywordRepository(db DBTX) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func (r *KeywordRepository) List(ctx context.Context) ([]models.RestrictedKeyword, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, keyword, category, created_at
		FROM restricted_content
		ORDER BY keyword ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keywords := make([]models.RestrictedKeyword, 0)
	for rows.Next() {
		var keyword models.RestrictedKeyword
		if err := rows.Scan(&keyword.ID, &keyword.Keyword, &keyword.Category, &keyword.CreatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, keyword)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keywords, nil
}

func (r *KeywordRepository) Create(ctx context.Context, keyword string, category string) (*models.RestrictedKeyword, error) {
	var created models.RestrictedKeyword
	err := r.db.QueryRow(ctx, `
		INSERT INTO restricted_content (keyword, category)
		VALUES ($1, $2)
		RETURNING id, keyword, category, created_at
	`, keyword, category).Scan(&created.ID, &created.Keyword, &created.Category, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

func (r *KeywordRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM restricted_content WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
