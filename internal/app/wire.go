package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/adreward"
	"github.com/puzzlerush/platform/internal/auth"
	"github.com/puzzlerush/platform/internal/fraud"
	"github.com/puzzlerush/platform/internal/guard"
	"github.com/puzzlerush/platform/internal/handler"
	"github.com/puzzlerush/platform/internal/infra"
	"github.com/puzzlerush/platform/internal/ledger"
	"github.com/puzzlerush/platform/internal/repository"
	"github.com/puzzlerush/platform/internal/service"
	"github.com/puzzlerush/platform/internal/settlement"
	"github.com/puzzlerush/platform/internal/streak"
)

// App holds the assembled application.
type App struct {
	Router  chi.Router
	Sweeper *guard.SessionSweeper
}

// New wires repositories, the ledger engine, services, and routes.
func New(cfg *infra.Config, pool *pgxpool.Pool, logger *slog.Logger) (*App, error) {
	playerExpiry, err := time.ParseDuration(cfg.JWTPlayerExpiry)
	if err != nil {
		playerExpiry = 24 * time.Hour
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, playerExpiry)

	// Repositories
	playerRepo := repository.NewPlayerRepository()
	sessionRepo := repository.NewSessionRepository()
	fraudRepo := repository.NewFraudRepository()
	streakRepo := repository.NewStreakRepository()
	inventoryRepo := repository.NewInventoryRepository()
	adRewardRepo := repository.NewAdRewardRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine
	engine := ledger.NewEngine(playerRepo, inventoryRepo, adRewardRepo, outboxRepo, cfg.LockTimeout)

	// Settlement pipeline
	evaluator := fraud.NewEvaluator(fraud.Config{
		MaxScorePerSecond:      cfg.MaxScorePerSecond,
		MinSessionDuration:     cfg.MinSessionDuration,
		MaxInputsPerSecond:     cfg.MaxInputsPerSecond,
		MacroSignatures:        cfg.MacroSignatureList(),
		HistoryScoreMultiplier: cfg.HistoryScoreMultiplier,
		HistoryMinSessions:     cfg.HistoryMinSessions,
	})
	tracker := streak.NewTracker(cfg.StreakGraceWindow)
	orchestrator := settlement.NewOrchestrator(
		pool, engine, evaluator, tracker,
		sessionRepo, fraudRepo, streakRepo, outboxRepo,
		settlement.Config{
			PointsPerScore: cfg.PointsPerScore,
		},
		logger,
	)

	// Ad reward verification
	var adRewardSvc *adreward.Service
	if cfg.SSVKeysJSON != "" {
		verifier, err := adreward.NewVerifier([]byte(cfg.SSVKeysJSON), cfg.SSVFreshnessWindow)
		if err != nil {
			return nil, err
		}
		adRewardSvc = adreward.NewService(pool, engine, verifier, logger)
	}

	// Services
	authSvc := service.NewAuthService(pool, playerRepo, outboxRepo, jwtMgr, logger)
	storeSvc := service.NewStoreService(pool, engine, inventoryRepo, logger)
	playerSvc := service.NewPlayerService(pool, playerRepo, streakRepo, fraudRepo, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(orchestrator)
	storeHandler := handler.NewStoreHandler(storeSvc)
	playerHandler := handler.NewPlayerHandler(playerSvc)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(cfg.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Sign-in (no auth)
	r.Post("/auth/google", authHandler.SignIn)

	// Ad network callback (authenticated by signature, not JWT)
	if adRewardSvc != nil {
		adRewardHandler := handler.NewAdRewardHandler(adRewardSvc)
		r.Get("/rewards/ssv", adRewardHandler.Callback)
	}

	// Player-authenticated routes
	submitLimiter := guard.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticatePlayer(jwtMgr))

		r.With(handler.RateLimit(submitLimiter)).Post("/sessions", sessionHandler.Submit)
		r.Get("/sessions/{sessionID}", sessionHandler.Get)

		r.Get("/store/catalog", storeHandler.Catalog)
		r.With(handler.RateLimit(submitLimiter)).Post("/store/purchase", storeHandler.Purchase)

		r.Get("/players/me", playerHandler.GetMe)
		r.Get("/players/me/streak", playerHandler.GetStreak)
		r.Get("/players/me/inventory", storeHandler.Inventory)
		r.Get("/players/me/fraud-attempts", playerHandler.GetFraudHistory)
		r.Put("/players/me/wallet", playerHandler.LinkWallet)
	})

	sweeper := guard.NewSessionSweeper(pool, sessionRepo, outboxRepo, cfg.PendingSessionMaxAge, logger)

	return &App{Router: r, Sweeper: sweeper}, nil
}
