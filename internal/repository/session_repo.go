package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, client_id, student_id, duration, scheduled_at, amount, status,
	payment_status, payment_reference, description, escrow_released_at, created_at, updated_at`

type CreateSessionInput struct {
	ClientID         uuid.UUID
	StudentID        uuid.UUID
	Duration         int
	ScheduledAt      time.Time
	Amount           int64
	Status           models.SessionStatus
	PaymentStatus    string
	PaymentReference string
	Description      *string
}

type SessionListFilter struct {
	ActorID uuid.UUID
	All     bool
	Status  string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.ClientID,
		&session.StudentID,
		&session.Duration,
		&session.ScheduledAt,
		&session.Amount,
		&session.Status,
		&session.PaymentStatus,
		&session.PaymentReference,
		&session.Description,
		&session.EscrowReleasedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func collectSessions(rows pgx.Rows) ([]models.Session, error) {
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO sessions (client_id, student_id, duration, scheduled_at, amount, status,
			payment_status, payment_reference, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRow(
		ctx,
		query,
		input.ClientID,
		input.StudentID,
		input.Duration,
		input.ScheduledAt,
		input.Amount,
		input.Status,
		input.PaymentStatus,
		input.PaymentReference,
		input.Description,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if !filter.All {
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, "(client_id = $1 OR student_id = $1)")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY scheduled_at DESC, id DESC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// UpdateStatusIfCurrent returns pgx.ErrNoRows when the session is no longer in currentStatus.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID uuid.UUID,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// ListOverdue returns confirmed sessions whose window closed before now.
func (r *SessionRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'confirmed'
		  AND (scheduled_at + (duration * INTERVAL '1 minute')) <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ClaimSettlement moves a paid session whose window has ended to settling.
// Settled or settling sessions are left alone.
func (r *SessionRepository) ClaimSettlement(ctx context.Context, sessionID uuid.UUID, now time.Time) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET payment_status = 'settling', updated_at = NOW()
		WHERE id = $1
		  AND (status = 'completed'
		       OR (status = 'confirmed' AND scheduled_at + (duration * INTERVAL '1 minute') <= $2))
		  AND payment_status IN ('completed', 'payout_failed')
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, now))
}

func (r *SessionRepository) MarkEscrowReleased(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET escrow_released_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND escrow_released_at IS NULL
	`, sessionID)
	return err
}

func (r *SessionRepository) ReleaseSettlement(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET payment_status = 'payout_failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'settling'
	`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *SessionRepository) MarkSettled(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET payment_status = 'settled', status = 'completed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'settling'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// MarkPaidByReference reconciles gateway-paid sessions that have not been recorded as paid yet.
func (r *SessionRepository) MarkPaidByReference(ctx context.Context, reference string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET payment_status = 'completed', updated_at = NOW()
		WHERE payment_reference = $1
		  AND COALESCE(payment_status, 'pending') = 'pending'
	`, reference)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
