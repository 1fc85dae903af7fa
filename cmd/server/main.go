package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradewarsim/engine/internal/config"
	"github.com/tradewarsim/engine/internal/database"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/budget"
	"github.com/tradewarsim/engine/internal/modules/calibration"
	"github.com/tradewarsim/engine/internal/modules/countries"
	"github.com/tradewarsim/engine/internal/modules/diplomacy"
	"github.com/tradewarsim/engine/internal/modules/economy"
	"github.com/tradewarsim/engine/internal/modules/snapshots"
	"github.com/tradewarsim/engine/internal/modules/trade"
	"github.com/tradewarsim/engine/internal/scheduler"
	"github.com/tradewarsim/engine/internal/server"
	"github.com/tradewarsim/engine/internal/services"
	"github.com/tradewarsim/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Trade War Engine")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Event bus
	eventBus := events.NewBus()
	eventMgr := events.NewManager(eventBus, log)

	// Repositories
	countryRepo := countries.NewRepository(db.Conn(), log)
	relationRepo := diplomacy.NewRepository(db.Conn(), log)
	paramsRepo := economy.NewParamsRepository(db.Conn(), log)
	decisionRepo := economy.NewDecisionRepository(db.Conn(), log)
	budgetRepo := budget.NewRepository(db.Conn(), log)
	ledger := budget.NewSubsidyLedger(db.Conn(), log)
	snapshotRepo := snapshots.NewRepository(db.Conn(), log)

	// Seed the default world on first run
	if err := countries.SeedIfEmpty(countryRepo, relationRepo, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed countries")
	}

	// Services
	budgetService := budget.NewService(budgetRepo, ledger, log)
	effectModel := economy.NewModel(economy.DefaultPolicyRanges(), log)
	calibrationEngine := calibration.NewEngine(paramsRepo, log)
	sanctionSim := diplomacy.NewSanctionSimulator(relationRepo, log)
	tradeService := trade.NewService(relationRepo, log)
	turnService := services.NewTurnService(db, countryRepo, budgetService, ledger, snapshotRepo, eventMgr, log)

	// Handlers
	countryHandler := countries.NewHandler(countryRepo, snapshotRepo, log)
	policyHandler := economy.NewHandler(
		effectModel, paramsRepo, decisionRepo, countryRepo,
		budgetService, ledger, relationRepo, eventMgr, cfg.HorizonYears, log,
	)
	budgetHandler := budget.NewHandler(budgetService, ledger, countryRepo, eventMgr, log)
	calibrationHandler := calibration.NewHandler(calibrationEngine, countryRepo, snapshotRepo, eventMgr, log)
	diplomacyHandler := diplomacy.NewHandler(relationRepo, sanctionSim, countryRepo, log)
	tradeHandler := trade.NewHandler(tradeService, countryRepo, log)
	systemHandlers := server.NewSystemHandlers(log, countryRepo, turnService)
	eventsHandler := server.NewEventsStreamHandler(eventBus, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Automatic turn advance when configured
	if cfg.TurnCron != "" {
		job := scheduler.NewTurnAdvanceJob(turnService, log)
		if err := sched.AddJob(cfg.TurnCron, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.TurnCron).Msg("Failed to register turn advance job")
		}
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:        cfg.Port,
		Log:         log,
		DB:          db,
		Config:      cfg,
		DevMode:     cfg.DevMode,
		Countries:   countryHandler,
		Policy:      policyHandler,
		Budget:      budgetHandler,
		Calibration: calibrationHandler,
		Diplomacy:   diplomacyHandler,
		Trade:       tradeHandler,
		Turns:       turnService,
		System:      systemHandlers,
		Events:      eventsHandler,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
