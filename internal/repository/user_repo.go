package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

const userColumns = `id, email, name, role, status, is_verified, badge, quiz_score, department_id,
	wallet_balance, bank_name, bank_code, account_number, account_name, created_at, updated_at`

type UserListFilter struct {
	Role   string
	Status string
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Status,
		&user.IsVerified,
		&user.Badge,
		&user.QuizScore,
		&user.DepartmentID,
		&user.WalletBalance,
		&user.BankName,
		&user.BankCode,
		&user.AccountNumber,
		&user.AccountName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) List(ctx context.Context, filter UserListFilter) ([]models.User, error) {
	args := []any{}
	whereParts := []string{"TRUE"}
	if role := strings.TrimSpace(filter.Role); role != "" {
		args = append(args, role)
		whereParts = append(whereParts, fmt.Sprintf("role = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
	`, userColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) (*models.User, error) {
	query := `
		UPDATE users SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, status))
}

func (r *UserRepository) MarkVerified(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		UPDATE users SET is_verified = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdateBankDetails(
	ctx context.Context,
	id uuid.UUID,
	details models.BankDetails,
) (*models.User, error) {
	query := `
		UPDATE users
		SET bank_name = $2, bank_code = $3, account_number = $4, account_name = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(
		ctx,
		query,
		id,
		details.BankName,
		details.BankCode,
		details.AccountNumber,
		details.AccountName,
	))
}

func (r *UserRepository) AwardBadge(ctx context.Context, id uuid.UUID, score int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET badge = TRUE, quiz_score = $2, updated_at = NOW()
		WHERE id = $1
	`, id, score)
	return err
}

// DebitWallet subtracts amount only when the balance covers it. It returns
// pgx.ErrNoRows when the balance is short, leaving the row untouched.
func (r *UserRepository) DebitWallet(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET wallet_balance = wallet_balance - $2, updated_at = NOW()
		WHERE id = $1 AND wallet_balance >= $2
		RETURNING wallet_balance
	`, id, amount).Scan(&balance)
	return balance, err
}

func (r *UserRepository) CreditWallet(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET wallet_balance = wallet_balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING wallet_balance
	`, id, amount).Scan(&balance)
	return balance, err
}

func (r *UserRepository) WalletBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id = $1`, id).Scan(&balance)
	return balance, err
}

