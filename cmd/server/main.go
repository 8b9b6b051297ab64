// Package main is the entry point for the decay-dynamics service. The
// service computes collective decay quantities for cold-atom ensembles:
// Clebsch-Gordan weighted hyperfine operators, dipole-dipole coupling
// matrices from the electromagnetic Green tensor, and sphere-geometry
// position samples. Results are cached and persisted in SQLite, with
// optional archive export to S3-compatible storage.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kimkyngt/decay-dynamics/internal/archive"
	"github.com/kimkyngt/decay-dynamics/internal/config"
	"github.com/kimkyngt/decay-dynamics/internal/database"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
	"github.com/kimkyngt/decay-dynamics/internal/modules/operators"
	"github.com/kimkyngt/decay-dynamics/internal/scheduler"
	"github.com/kimkyngt/decay-dynamics/internal/server"
	"github.com/kimkyngt/decay-dynamics/pkg/logger"
)

func main() {
	// Load configuration first to get the log level. Configuration comes
	// from environment variables, optionally via a .env file.
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting decay-dynamics")

	// Open the results database and apply the schema. A single database
	// holds both the coupling cache and persisted runs.
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "results.db"),
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results database")
	}
	defer db.Close()

	if err := db.Migrate(database.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate results database")
	}

	// Wire services. The coupling service depends on geometry for
	// position sampling and on the database for caching and runs.
	operatorService := operators.NewService(log)
	geometryService := geometry.NewService(log)
	couplingService := coupling.NewService(
		geometryService,
		coupling.NewCache(db.Conn()),
		coupling.NewRunRepository(db.Conn(), log),
		cfg.CacheTTL,
		log,
	)

	// Archive export is optional and only wired when credentials are
	// configured.
	var archiveService *archive.Service
	if cfg.Archive.Enabled {
		store, err := archive.NewR2Client(context.Background(), cfg.Archive, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create object storage client")
		}

		archiveService = archive.NewService(
			store,
			db,
			cfg.DataDir,
			cfg.Archive.RetentionDays,
			cfg.Archive.MinKeep,
			log,
		)
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("Archive export enabled")
	}

	srv := server.New(server.Config{
		Log:             log,
		DB:              db,
		Config:          cfg,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		OperatorService: operatorService,
		GeometryService: geometryService,
		CouplingService: couplingService,
	})

	// Background jobs: hourly cache sweeps, nightly database
	// maintenance, and when configured, run pruning and archive export.
	sched := scheduler.New(log)

	if err := sched.AddJob("@hourly", scheduler.NewCacheCleanupJob(couplingService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}

	if err := sched.AddJob("30 2 * * *", scheduler.NewMaintenanceJob(db, cfg.DataDir, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	if cfg.RunRetentionDays > 0 {
		maxAge := time.Duration(cfg.RunRetentionDays) * 24 * time.Hour
		if err := sched.AddJob("0 3 * * *", scheduler.NewPruneRunsJob(couplingService, maxAge, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register run pruning job")
		}
	}

	if archiveService != nil {
		if err := sched.AddJob("0 4 * * *", scheduler.NewArchiveJob(archiveService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register archive job")
		}
	}

	sched.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// In-flight requests and running jobs get up to 10 seconds to
	// finish before the process exits.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
