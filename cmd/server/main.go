package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iboito/dividenden-dashboard/internal/clients/yahoo"
	"github.com/iboito/dividenden-dashboard/internal/config"
	"github.com/iboito/dividenden-dashboard/internal/database"
	"github.com/iboito/dividenden-dashboard/internal/modules/analysis"
	"github.com/iboito/dividenden-dashboard/internal/modules/fx"
	"github.com/iboito/dividenden-dashboard/internal/modules/overrides"
	"github.com/iboito/dividenden-dashboard/internal/modules/universe"
	"github.com/iboito/dividenden-dashboard/internal/scheduler"
	"github.com/iboito/dividenden-dashboard/internal/server"
	"github.com/iboito/dividenden-dashboard/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting Dividenden-Dashboard")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	overrideStore := overrides.NewStore(cfg.OverridesPath, log)
	overrideStore.Load()

	yahooClient := yahoo.NewClient(log)
	fxCache := fx.NewCache(yahooClient, log)
	historyCache := universe.NewHistoryCache(cfg.HistoryDir, log)

	analysisService := analysis.NewService(analysis.Config{
		Quotes:         yahooClient,
		History:        yahooClient,
		Cache:          historyCache,
		FX:             fxCache,
		Overrides:      overrideStore,
		TargetCurrency: cfg.TargetCurrency,
		LookbackDays:   cfg.LookbackDays,
		Log:            log,
	})

	snapshotRepo := analysis.NewSnapshotRepository(db, log)

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	snapshotJob := scheduler.NewSnapshotJob(analysisService, snapshotRepo, cfg.Tickers, log)
	if err := sched.AddJob("@daily", snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Analysis:  analysisService,
		Snapshots: snapshotRepo,
		Overrides: overrideStore,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
