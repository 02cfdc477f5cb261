package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

type ReportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

func scanReport(row rowScanner) (*models.Report, error) {
	var report models.Report
	if err := row.Scan(
		&report.ID,
		&report.MessageID,
		&report.FlaggedBy,
		&report.Reason,
		&report.Status,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) Create(
	ctx context.Context,
	messageID uuid.UUID,
	flaggedBy uuid.UUID,
	reason string,
) (*models.Report, error) {
	query := `
		INSERT INTO reports (message_id, flagged_by, reason, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, message_id, flagged_by, reason, status, created_at
	`
	return scanReport(r.db.QueryRow(ctx, query, messageID, flaggedBy, reason))
}

func (r *ReportRepository) List(ctx context.Context, status string) ([]models.Report, error) {
	query := `
		SELECT id, message_id, flagged_by, reason, status, created_at
		FROM reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportRepository) UpdateStatus(
	ctx context.Context,
	reportID uuid.UUID,
	status models.ReportStatus,
) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $2
		WHERE id = $1
		RETURNING id, message_id, flagged_by, reason, status, created_at
	`
	return scanReport(r.db.QueryRow(ctx, query, reportID, status))
}
