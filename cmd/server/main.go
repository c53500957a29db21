package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/catalog"
	"whiskyrec/internal/config"
	"whiskyrec/internal/db"
	"whiskyrec/internal/email"
	"whiskyrec/internal/form"
	"whiskyrec/internal/handlers/api"
	"whiskyrec/internal/jobs"
	"whiskyrec/internal/metrics"
	"whiskyrec/internal/server"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		fatal("failed to load config file", err)
	}
	yamlCfg.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database is optional; without it nothing is persisted.
	var (
		database *db.DB
		recorder *db.Recorder
		counter  metrics.FeedbackCounter
		history  api.HistoryStore
	)
	if cfg.IsPersistenceEnabled() {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("failed to connect to database", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			fatal("failed to run migrations", err)
		}
		slog.Info("migrations completed successfully")

		recorder = db.NewRecorder(database)
		counter = database
		history = database
	} else {
		slog.Info("persistence disabled, set DATABASE_URL to store feedback")
	}

	metrics.Init(prometheus.DefaultRegisterer, counter)
	notifier := email.NewNotifier(cfg)

	// Catalog: loaded once, then refreshed on file change or on a timer.
	src, err := catalog.NewSource(cfg.CatalogSource)
	if err != nil {
		fatal("invalid catalog source", err)
	}
	store := catalog.NewStore(src)
	store.OnReload(func(c *catalog.Catalog, err error) {
		metrics.RecordCatalogLoad(c.Len(), err)
		notifier.NotifyCatalogLoadFailed(src.String(), err, c.Len())
	})
	if err := store.Load(ctx); err != nil {
		slog.Warn("starting with an empty catalog", "source", src.String(), "error", err)
	} else {
		slog.Info("catalog loaded", "source", src.String(), "rows", store.Catalog().Len())
	}

	go func() {
		if err := store.Watch(ctx); err != nil {
			slog.Error("catalog watcher stopped", "error", err)
		}
	}()
	if cfg.CatalogRefreshInterval > 0 {
		go jobs.NewCatalogRefresher(store, cfg.CatalogRefreshInterval, cfg.BackendTimeout).Start(ctx)
	}

	client := backend.New(backend.Config{
		BaseURL:       cfg.BackendURL,
		RecommendPath: cfg.BackendRecommendPath,
		FeedbackPath:  cfg.BackendFeedbackPath,
		Timeout:       cfg.BackendTimeout,
		OnOpen:        notifier.NotifyBackendUnavailable,
	})

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, server.Deps{
		Store:    store,
		Backend:  client,
		Guard:    form.NewGuard(),
		Recorder: recorder,
		DB:       database,
		History:  history,
	}); err != nil {
		fatal("failed to register routes", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if recorder != nil {
		recorder.Wait()
	}
	slog.Info("server exited")
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
