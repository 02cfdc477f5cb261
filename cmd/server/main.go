package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hireveno/hireveno-back/internal/config"
	"github.com/hireveno/hireveno-back/internal/database"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/logger"
	"github.com/hireveno/hireveno-back/internal/routes"
	"github.com/rs/zerolog"
)

const (
	memoryBusBuffer = 256
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := logger.New("production", "info")
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("no .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl, database.PoolOptions{
		MaxConns:         cfg.DBMaxConns,
		StatementTimeout: cfg.DBStatementTimeout,
	}, log); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDB()

	// 3. Event bus
	bus, err := newEventBus(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start event bus")
	}
	defer bus.Close()

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.AppEnv == "production"})

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	workers, err := routes.RegisterRoutes(app, cfg, database.DB, bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		workers.Hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := workers.Relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("notification relay stopped")
		}
	}()
	go func() {
		defer wg.Done()
		workers.Sweeper.Run(ctx)
	}()

	// 5. Start Server
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
		stop()
	}
	wg.Wait()
}

func newEventBus(ctx context.Context, cfg *config.Config, log zerolog.Logger) (events.Bus, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("using in-memory event bus")
		return events.NewMemoryBus(memoryBusBuffer), nil
	}

	bus, err := events.NewRedisBus(cfg.RedisURL, events.DefaultChannel, log.With().Str("component", "redis_bus").Logger())
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := bus.Ping(pingCtx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	log.Info().Str("channel", events.DefaultChannel).Msg("using redis event bus")
	return bus, nil
}
