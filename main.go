package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mundheim/grouptrack/internal/adapters/cache"
	"github.com/mundheim/grouptrack/internal/adapters/database"
	"github.com/mundheim/grouptrack/internal/adapters/ledgerrepository"
	"github.com/mundheim/grouptrack/internal/adapters/telegram"
	"github.com/mundheim/grouptrack/internal/app"
	"github.com/mundheim/grouptrack/internal/bot"
	"github.com/mundheim/grouptrack/internal/config"
	"github.com/mundheim/grouptrack/internal/logging"
	"github.com/mundheim/grouptrack/internal/ports"
	"github.com/mundheim/grouptrack/internal/ratelimiting"
	"github.com/mundheim/grouptrack/internal/reporting"
	"github.com/mundheim/grouptrack/internal/telemetry"
)

const leaderboardCacheTTL = 30 * time.Second

func main() {
	startedAt := time.Now()

	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	// Local development convenience; env vars win over .env values
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", "error", err.Error())
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.AddToContext(ctx, logger.With("component", "worker"))

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "grouptrack")
	if err != nil {
		fail("Failed to initialize telemetry", "error", err.Error())
	}
	defer func() {
		err := shutdownTelemetry(context.Background())
		if err != nil {
			logger.Error("Failed to shut down telemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	httpClient := &http.Client{
		// Must exceed the long poll timeout
		Timeout: 60 * time.Second,
	}
	botAPI, err := telegram.NewBotAPIOrMock(config, httpClient)
	if err != nil {
		fail("Failed to initialize Bot API client", "error", err.Error())
	}
	logger.Info("Initialized Bot API client")

	var repo ledgerrepository.LedgerRepository
	var pinger ports.DatabasePinger

	logger.Info("Initializing database connection")
	db, err := database.NewConfiguredPostgresDatabase(config)
	if err != nil {
		if !config.IsDevelopment() {
			fail("Failed to initialize database connection", "error", err.Error())
		}
		logger.Warn("Failed to connect to database, using in-memory store", "error", err.Error())

		repo = ledgerrepository.NewInMemory(time.Now)
		pinger = ports.PingerFunc(func(ctx context.Context) error { return nil })
	} else {
		logger.Info("Initialized database connection")

		schemaName := database.GetSchemaName(!config.IsProduction())

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		repo = ledgerrepository.NewPostgres(db, schemaName, time.Now)
		pinger = db
	}
	logger.Info("Initialized LedgerRepository")

	leaderboardCache := cache.NewTTLCache[app.Leaderboard](leaderboardCacheTTL)

	ingestActivity := app.BuildIngestActivity(repo, config.PointsPerMessage(), config.PointsPerSticker())
	refreshUser := app.BuildRefreshUser(repo)
	getLeaderboard := app.BuildGetLeaderboard(leaderboardCache, repo)
	getUserStats := app.BuildGetUserStats(repo)
	getBotStats := app.BuildGetBotStats(repo)

	replyRateLimiter, stopRateLimiter := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(20),
	)
	defer stopRateLimiter()

	worker := bot.NewWorker(
		botAPI,
		ingestActivity,
		refreshUser,
		getLeaderboard,
		getUserStats,
		getBotStats,
		replyRateLimiter,
		config.MaxLeaderboardEntries(),
		time.Now,
	)

	checkReady := func(ctx context.Context) error {
		_, err := repo.TotalUserCount(ctx)
		return err
	}

	http.HandleFunc(
		"GET /health",
		ports.MakeHealthHandler(pinger, startedAt, logger.With("port", "health"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /ready",
		ports.MakeReadyHandler(checkReady, logger.With("port", "ready"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /stats",
		ports.MakeStatsHandler(getBotStats, logger.With("port", "stats"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /leaderboard",
		ports.MakeLeaderboardHandler(
			getLeaderboard,
			config.MaxLeaderboardEntries(),
			logger.With("port", "leaderboard"),
			sentryMiddleware,
		),
	)

	server := &http.Server{Addr: fmt.Sprintf(":%s", config.Port())}

	go func() {
		err := worker.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Update worker stopped", "error", err.Error())
			reporting.Report(ctx, err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete")
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
