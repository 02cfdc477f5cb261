package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestWalletPaymentIntegration(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	payments, _ := newIntegrationServices(pool)

	learnerID := createTestUser(t, ctx, pool, models.RoleAspirant, 150000, false)
	tutorID := createTestUser(t, ctx, pool, models.RoleStudent, 0, true)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, learnerID, tutorID) })

	actor := models.Actor{ID: learnerID, Role: models.RoleAspirant, Status: models.UserActive}
	scheduledAt := time.Now().Add(72 * time.Hour).Truncate(time.Minute)

	_, err := payments.PayWithWallet(ctx, actor, BookingInput{StudentID: tutorID, Duration: 90, ScheduledAt: scheduledAt})
	var shortfall *InsufficientBalanceError
	if !errors.As(err, &shortfall) || shortfall.Shortfall() != 75000 {
		t.Fatalf("expected a 75000 shortfall, got %v", err)
	}

	detail, err := payments.PayWithWallet(ctx, actor, BookingInput{StudentID: tutorID, Duration: 60, ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("PayWithWallet: %v", err)
	}
	if detail.Status != models.SessionConfirmed || detail.Payment == nil || detail.Payment.Amount != 150000 {
		t.Fatalf("unexpected booking %+v", detail)
	}

	balance, err := repository.NewUserRepository(pool).WalletBalance(ctx, learnerID)
	if err != nil {
		t.Fatalf("WalletBalance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}

func TestSettlementIntegrationCreditsOnce(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	payments, settlement := newIntegrationServices(pool)

	learnerID := createTestUser(t, ctx, pool, models.RoleAspirant, 150000, false)
	tutorID := createTestUser(t, ctx, pool, models.RoleStudent, 0, true)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, learnerID, tutorID) })

	actor := models.Actor{ID: learnerID, Role: models.RoleAspirant, Status: models.UserActive}
	detail, err := payments.PayWithWallet(ctx, actor, BookingInput{
		StudentID:   tutorID,
		Duration:    60,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("PayWithWallet: %v", err)
	}

	first, err := settlement.Settle(ctx, detail.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if first.Method != "wallet" || first.Payout != 105000 {
		t.Fatalf("unexpected settlement %+v", first)
	}
	if _, err := settlement.Settle(ctx, detail.ID); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}

	balance, err := repository.NewUserRepository(pool).WalletBalance(ctx, tutorID)
	if err != nil {
		t.Fatalf("WalletBalance: %v", err)
	}
	if balance != 105000 {
		t.Fatalf("expected tutor balance 105000, got %d", balance)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("TEST_DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("TEST_DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationServices(pool *pgxpool.Pool) (*PaymentService, *SettlementService) {
	sessionRepo := repository.NewSessionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	store := repository.NewStore(pool)
	bus := events.NewMemoryBus(16)

	sessions := NewSessionService(sessionRepo, repository.NewTransactionRepository(pool), userRepo, bus, zerolog.Nop())
	payments := NewPaymentService(sessions, store, userRepo, nil, bus, PaymentConfig{Currency: "NGN"}, zerolog.Nop())
	settlement := NewSettlementService(sessionRepo, store, userRepo, nil, bus, "NGN", zerolog.Nop())
	return payments, settlement
}

func createTestUser(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	role models.UserRole,
	balance int64,
	badge bool,
) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, status, is_verified, badge, wallet_balance)
		VALUES ($1, $2, $3, $4, 'active', $5, $5, $6)`,
		id,
		fmt.Sprintf("session-test-%s@example.com", id),
		"Test "+string(role),
		string(role),
		badge,
		balance,
	)
	if err != nil {
		t.Fatalf("insert %s: %v", role, err)
	}
	return id
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...uuid.UUID) {
	t.Helper()

	statements := []string{
		"DELETE FROM transactions WHERE user_id = ANY($1)",
		"DELETE FROM reviews WHERE reviewer_id = ANY($1)",
		"DELETE FROM chat_messages WHERE sender_id = ANY($1)",
		"DELETE FROM sessions WHERE client_id = ANY($1) OR student_id = ANY($1)",
		"DELETE FROM users WHERE id = ANY($1)",
	}
	for _, statement := range statements {
		if _, err := pool.Exec(ctx, statement, userIDs); err != nil {
			t.Fatalf("cleanup %q: %v", statement, err)
		}
	}
}
