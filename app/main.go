package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/cima-comb/app/api"
	"github.com/lysyi3m/cima-comb/app/cfg"
	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/harvest"
	"github.com/lysyi3m/cima-comb/app/notify"
	"github.com/lysyi3m/cima-comb/app/source"
	"github.com/lysyi3m/cima-comb/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	setupLogger(appConfig.Debug)

	if err := run(appConfig); err != nil {
		slog.Error("Cima Comb stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appConfig *cfg.Cfg) error {
	slog.Info("Starting Cima Comb", "version", appConfig.Version)

	db, err := database.Open(appConfig.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", appConfig.DBPath, "schema_version", version, "dirty", dirty)

	registry, err := source.LoadRegistry(appConfig.SourcesFile)
	if err != nil {
		return err
	}
	slog.Info("Source registry loaded", "sources", registry.Count(), "enabled", len(registry.Enabled()))

	itemRepo := database.NewItemRepository(db)
	statusRepo := database.NewStatusRepository(db)
	userRepo := database.NewUserRepository(db)

	client := harvest.NewClient(&http.Client{}, appConfig.UserAgent)

	genreSelectors := make(map[string][]string)
	for _, src := range registry.Sources() {
		genreSelectors[src.Name] = src.GenreSelectors
	}

	pipeline := harvest.NewPipeline(harvest.PipelineDeps{
		DB:         db,
		Sources:    registry,
		Fetcher:    harvest.NewFetcher(client, statusRepo),
		Enricher:   harvest.NewEnricher(client, genreSelectors),
		Reconciler: harvest.NewReconciler(itemRepo, statusRepo),
		Dispatcher: notify.NewDispatcher(userRepo, notify.LogNotifier{}),
		Pool: harvest.PoolConfig{
			Workers: appConfig.DetailWorkers,
			Delay:   appConfig.DetailDelay,
		},
	})

	scheduler := tasks.NewScheduler(pipeline, itemRepo, db, tasks.SchedulerConfig{
		HarvestInterval: appConfig.ScrapeInterval(),
		CleanupSchedule: appConfig.CleanupSchedule,
		Retention:       appConfig.Retention(),
		HarvestOnStart:  true,
	})
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	handler := api.NewHandler(api.HandlerDeps{
		Items:     itemRepo,
		Statuses:  statusRepo,
		Users:     userRepo,
		Sources:   registry,
		Prober:    client,
		Harvest:   pipeline,
		Scheduler: scheduler,
	})
	server := api.NewServer(handler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler and database are closed via defer
	return runErr
}
