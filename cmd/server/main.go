package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AXAStudio/oscillo/internal/auth"
	"github.com/AXAStudio/oscillo/internal/clients/backend"
	"github.com/AXAStudio/oscillo/internal/clients/yahoo"
	"github.com/AXAStudio/oscillo/internal/config"
	"github.com/AXAStudio/oscillo/internal/database"
	"github.com/AXAStudio/oscillo/internal/events"
	"github.com/AXAStudio/oscillo/internal/modules/dashboard"
	"github.com/AXAStudio/oscillo/internal/modules/market"
	"github.com/AXAStudio/oscillo/internal/modules/orders"
	"github.com/AXAStudio/oscillo/internal/modules/performance"
	"github.com/AXAStudio/oscillo/internal/modules/portfolio"
	"github.com/AXAStudio/oscillo/internal/scheduler"
	"github.com/AXAStudio/oscillo/internal/server"
	"github.com/AXAStudio/oscillo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting oscillo")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	eventMgr := events.NewManager(log)

	// Clients
	yahooClient := yahoo.NewClient(log)
	backendClient := backend.NewClient(cfg.BackendBaseURL, "", log)

	// Repositories
	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(db.Conn(), log)
	orderRepo := orders.NewRepository(db.Conn(), log)
	snapshotRepo := performance.NewRepository(db.Conn(), log)

	// Services
	marketService := market.NewService(yahooClient, time.Duration(cfg.QuoteCacheTTLSeconds)*time.Second, log)
	portfolioService := portfolio.NewService(portfolioRepo, positionRepo, marketService, orderRepo, eventMgr, log)
	orderService := orders.NewService(orderRepo, portfolioRepo, positionRepo, eventMgr, log)
	performanceService := performance.NewService(snapshotRepo, portfolioRepo, eventMgr, log)
	dashboardService := dashboard.NewService(log)

	// Authentication
	authenticator := auth.New(auth.Config{
		ProviderURL: cfg.AuthURL,
		ServiceKey:  cfg.AuthServiceKey,
		DevMode:     cfg.DevMode,
		DevUserID:   cfg.DevUserID,
	}, log)

	// Background snapshot job
	sched := scheduler.New(log)
	snapshotJob := scheduler.NewSnapshotJob(portfolioRepo, portfolioService, performanceService, log)
	if err := sched.AddJob(cfg.SnapshotSchedule, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:          cfg.Port,
		Log:           log,
		DB:            db,
		DevMode:       cfg.DevMode,
		Authenticator: authenticator,

		PortfolioHandlers:   portfolio.NewHandlers(portfolioService, log),
		OrderHandlers:       orders.NewHandlers(orderService, log),
		MarketHandlers:      market.NewHandlers(marketService, log),
		PerformanceHandlers: performance.NewHandlers(performanceService, log),
		DashboardHandlers: dashboard.NewHandlers(dashboardService, func(token string) dashboard.Client {
			return backendClient.WithToken(token)
		}, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
