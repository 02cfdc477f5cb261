package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

type DeviceRepository struct {
	db DBTX
}

func NewDeviceRepository(db DBTX) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Upsert(
	ctx context.Context,
	userID uuid.UUID,
	token string,
	deviceType *string,
) (*models.Device, error) {
	var device models.Device
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_devices (user_id, token, device_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, device_type = EXCLUDED.device_type, updated_at = NOW()
		RETURNING id, user_id, token, device_type, created_at, updated_at
	`, userID, token, deviceType).Scan(
		&device.ID,
		&device.UserID,
		&device.Token,
		&device.DeviceType,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) TokensForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT token FROM user_devices WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
