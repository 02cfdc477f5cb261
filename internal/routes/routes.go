package routes

import (
	"context"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/hireveno/hireveno-back/internal/config"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/handlers"
	"github.com/hireveno/hireveno-back/internal/middleware"
	"github.com/hireveno/hireveno-back/internal/notifications"
	"github.com/hireveno/hireveno-back/internal/payments"
	"github.com/hireveno/hireveno-back/internal/repository"
	"github.com/hireveno/hireveno-back/internal/services"
	chatws "github.com/hireveno/hireveno-back/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Workers are the loops that run next to the HTTP listener.
type Workers struct {
	Hub     *chatws.Hub
	Relay   *notifications.Relay
	Sweeper *services.SessionSweeper
}

// gatewayClient is nil when no Flutterwave secret key is configured.
type gatewayClient interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*payments.VerifiedCharge, error)
	SettleEscrow(ctx context.Context, reference string) error
	Transfer(ctx context.Context, request payments.TransferRequest) (*payments.TransferResult, error)
}

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	bus events.Bus,
	logger zerolog.Logger,
) (*Workers, error) {
	if cfg == nil || db == nil || bus == nil {
		return nil, errors.New("routes: config, database and event bus are required")
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reportRepo := repository.NewReportRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	keywordRepo := repository.NewKeywordRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	appealRepo := repository.NewAppealRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	store := repository.NewStore(db)

	var gateway gatewayClient
	if cfg.PayoutsEnabled() {
		gateway = payments.NewClient(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey)
	}

	filter := services.NewContentFilter(keywordRepo, cfg.KeywordCacheTTL, logger.With().Str("component", "content_filter").Logger())
	sessionService := services.NewSessionService(sessionRepo, transactionRepo, userRepo, bus, logger.With().Str("component", "sessions").Logger())
	paymentService := services.NewPaymentService(
		sessionService,
		store,
		userRepo,
		gateway,
		bus,
		services.PaymentConfig{PublicKey: cfg.FlutterwavePublicKey, Currency: cfg.PaymentCurrency},
		logger.With().Str("component", "payments").Logger(),
	)
	chatService := services.NewChatService(sessionRepo, sessionService, messageRepo, reportRepo, filter, bus, logger.With().Str("component", "chat").Logger())
	settlementService := services.NewSettlementService(
		sessionRepo,
		store,
		userRepo,
		gateway,
		bus,
		cfg.PaymentCurrency,
		logger.With().Str("component", "settlement").Logger(),
	)
	reviewService := services.NewReviewService(sessionRepo, sessionService, reviewRepo, settlementService, logger.With().Str("component", "reviews").Logger())
	walletService := services.NewWalletService(userRepo, transactionRepo, withdrawalRepo, store, logger.With().Str("component", "wallet").Logger())
	quizService := services.NewQuizService(userRepo, quizRepo, store)
	accountService := services.NewAccountService(userRepo, deviceRepo, appealRepo)
	moderationService := services.NewModerationService(reportRepo, userRepo, appealRepo, keywordRepo, filter, logger.With().Str("component", "moderation").Logger())

	hub := chatws.NewHub(logger.With().Str("component", "ws_hub").Logger())
	sinks := notifications.MultiSink{hub}
	if cfg.ExpoPushEnabled {
		sinks = append(sinks, notifications.NewExpoSink(deviceRepo, logger.With().Str("component", "expo").Logger()))
	}
	relay := notifications.NewRelay(bus, sessionRepo, userRepo, sinks, hub, logger.With().Str("component", "relay").Logger())
	sweeper := services.NewSessionSweeper(sessionService, cfg.SessionSweepInterval, logger.With().Str("component", "sweeper").Logger())

	sessionHandler := handlers.NewSessionHandler(sessionService, paymentService)
	chatHandler := handlers.NewChatHandler(chatService, hub)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	walletHandler := handlers.NewWalletHandler(walletService)
	quizHandler := handlers.NewQuizHandler(quizService)
	accountHandler := handlers.NewAccountHandler(accountService)
	adminHandler := handlers.NewAdminHandler(moderationService, walletService, settlementService)
	webhookHandler := handlers.NewWebhookHandler(paymentService, cfg.FlutterwaveHash, logger.With().Str("component", "webhook").Logger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if err := registerDocsRoutes(app, cfg); err != nil {
		return nil, err
	}

	api := app.Group("/api")
	api.Post("/webhooks/flutterwave", webhookHandler.Flutterwave)

	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret, userRepo))

	// Blocked and banned users keep access to their profile and appeals.
	v1.Get("/me", accountHandler.Me)
	v1.Post("/appeals", accountHandler.CreateAppeal)
	v1.Get("/appeals", accountHandler.ListAppeals)

	v1.Use("/ws", chatHandler.WebSocketUpgrade)
	v1.Get("/ws", middleware.ActiveOnly(), websocket.New(chatHandler.HandleWebSocket))

	active := v1.Group("", middleware.ActiveOnly())
	active.Post("/devices", accountHandler.RegisterDevice)

	sessions := active.Group("/sessions")
	sessions.Post("/checkout", sessionHandler.Checkout)
	sessions.Post("/pay/gateway", sessionHandler.PayWithGateway)
	sessions.Post("/pay/wallet", sessionHandler.PayWithWallet)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)
	sessions.Get("/:id/chat/window", chatHandler.GetWindow)
	sessions.Get("/:id/messages", chatHandler.ListMessages)
	sessions.Post("/:id/messages", chatHandler.SendMessage)
	sessions.Post("/:id/reviews", reviewHandler.SubmitReview)
	sessions.Get("/:id/reviews", reviewHandler.ListSessionReviews)

	messages := active.Group("/messages")
	messages.Delete("/:id", chatHandler.DeleteMessage)
	messages.Post("/:id/flag", chatHandler.FlagMessage)

	active.Get("/tutors/:id/reviews", reviewHandler.TutorReviews)

	wallet := active.Group("/wallet")
	wallet.Get("", walletHandler.GetWallet)
	wallet.Put("/bank", walletHandler.UpdateBankDetails)
	wallet.Post("/withdrawals", walletHandler.RequestWithdrawal)
	wallet.Get("/withdrawals", walletHandler.ListWithdrawals)

	quiz := active.Group("/quiz")
	quiz.Get("/questions", quizHandler.GetQuestions)
	quiz.Post("/attempts", quizHandler.SubmitAttempt)

	admin := active.Group("/admin", middleware.AdminOnly())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/status", adminHandler.SetUserStatus)
	admin.Put("/users/:id/verify", adminHandler.VerifyUser)
	admin.Get("/reports", adminHandler.ListReports)
	admin.Put("/reports/:id", adminHandler.ResolveReport)
	admin.Get("/appeals", adminHandler.ListAppeals)
	admin.Put("/appeals/:id", adminHandler.RespondToAppeal)
	admin.Get("/withdrawals", adminHandler.ListWithdrawals)
	admin.Put("/withdrawals/:id/status", adminHandler.UpdateWithdrawalStatus)
	admin.Post("/sessions/:id/settle", adminHandler.SettleSession)
	admin.Get("/keywords", adminHandler.ListKeywords)
	admin.Post("/keywords", adminHandler.AddKeyword)
	admin.Delete("/keywords/:id", adminHandler.DeleteKeyword)

	return &Workers{
		Hub:     hub,
		Relay:   relay,
		Sweeper: sweeper,
	}, nil
}
