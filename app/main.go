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

	"github.com/google/uuid"

	"github.com/clientpulse/clientpulse/app/api"
	"github.com/clientpulse/clientpulse/app/cache"
	"github.com/clientpulse/clientpulse/app/cfg"
	"github.com/clientpulse/clientpulse/app/collector"
	"github.com/clientpulse/clientpulse/app/config"
	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/intel"
	"github.com/clientpulse/clientpulse/app/notify"
	"github.com/clientpulse/clientpulse/app/schedule"
	"github.com/clientpulse/clientpulse/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ClientPulse", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	clientCache := config.NewClientCache(appCfg.ClientsDir)
	if err := clientCache.Run(); err != nil {
		slog.Error("Failed to load client configurations", "dir", appCfg.ClientsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Client configurations loaded", "count", clientCache.GetClientCount())

	entityRepo := database.NewEntityRepository(db)
	eventRepo := database.NewEventRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	runRepo := database.NewJobRunRepository(db)

	registerEntities(clientCache, entityRepo)

	engine := schedule.NewEngine(schedule.SystemClock())
	if err := seedDefaultSchedules(scheduleRepo, engine); err != nil {
		slog.Error("Failed to seed default schedules", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	searchCollector := collector.NewGoogleNewsCollector(httpClient, appCfg.CollectorRPM, appCfg.UserAgent)
	searchCache := cache.NewSearchCache()

	scheduler := tasks.NewScheduler(clientCache, searchCollector, searchCache, engine,
		intel.NewClassifier(), intel.NewScorer(appCfg.RecencyWindow()),
		intel.NewDeduplicator(appCfg.SimilarityThreshold), intel.NewArticleExtractor(),
		notify.NewLogNotifier(), entityRepo, eventRepo, scheduleRepo, runRepo, httpClient)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(clientCache, entityRepo, eventRepo, scheduleRepo, runRepo,
		engine, searchCache, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// registerEntities syncs the client configuration directory into the
// entities table. Removed configs are kept in the database so their events
// stay queryable; only the config decides what gets collected.
func registerEntities(clientCache *config.ClientCache, entityRepo database.EntityRepository) {
	clients := clientCache.GetClients()

	registered := 0
	renamed := 0
	for _, client := range clients {
		id, nameChanged, err := entityRepo.Upsert(client.Slug, client.Name, client.Settings.Enabled)
		if err != nil {
			slog.Warn("Failed to register entity", "client", client.Slug, "error", err)
			continue
		}

		if nameChanged {
			slog.Info("Entity renamed", "client", client.Slug, "name", client.Name, "id", id)
			renamed++
		} else {
			slog.Debug("Entity registered", "client", client.Slug, "id", id)
		}
		registered++
	}

	slog.Info("Entities registered", "registered", registered, "total", len(clients), "renamed", renamed)
}

// seedDefaultSchedules creates a baseline collection and enrichment cadence
// on first start, so a fresh deployment begins monitoring without API
// calls. Existing schedules, including deactivated ones, are left alone.
func seedDefaultSchedules(scheduleRepo database.ScheduleRepository, engine *schedule.Engine) error {
	existing, err := scheduleRepo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()
	defaults := []schedule.Schedule{
		{
			ID:        uuid.NewString(),
			Name:      "hourly collection",
			JobType:   string(tasks.TaskTypeCollect),
			Config:    schedule.Config{Type: schedule.TypeHourly, MinuteOfHour: 0},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        uuid.NewString(),
			Name:      "nightly enrichment",
			JobType:   string(tasks.TaskTypeEnrich),
			Config:    schedule.Config{Type: schedule.TypeDaily, HourOfDay: 2},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	for _, s := range defaults {
		if err := engine.Activate(&s); err != nil {
			return fmt.Errorf("failed to activate default schedule %q: %w", s.Name, err)
		}
		if err := scheduleRepo.Create(s); err != nil {
			return fmt.Errorf("failed to create default schedule %q: %w", s.Name, err)
		}
		slog.Info("Default schedule created", "name", s.Name, "next_run_at", s.NextRunAt)
	}

	return nil
}
