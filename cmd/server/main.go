package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teampulse/teampulse-backend/internal/config"
	"github.com/teampulse/teampulse-backend/internal/features"
	"github.com/teampulse/teampulse-backend/internal/ingest"
	"github.com/teampulse/teampulse-backend/internal/model"
	"github.com/teampulse/teampulse-backend/internal/monitoring"
	"github.com/teampulse/teampulse-backend/internal/ratelimit"
	"github.com/teampulse/teampulse-backend/internal/scoring"
	"github.com/teampulse/teampulse-backend/internal/store"
)

func main() {
	appLogger := monitoring.NewLogger(slog.LevelInfo)
	slog.SetDefault(appLogger.Logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := store.NewRepository(db)

	featureCfg, err := featureConfig(cfg)
	if err != nil {
		slog.Error("Invalid analysis configuration", "error", err)
		os.Exit(1)
	}
	extractor := features.NewExtractor(repo, featureCfg)

	registry := model.NewCachedRegistry(model.NewFileRegistry(cfg.ModelDir))
	scorer := scoring.NewService(extractor, registry)

	metrics := monitoring.NewMetrics()

	redisClient := ratelimit.NewRedisClient(cfg.RedisAddr)
	defer redisClient.Close()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:   cfg.IPLimitPerMin,
		BurstMultiplier: 2,
	}, metrics)

	githubClient := ingest.NewGitHubClient(cfg.GitHubToken)
	ingestor := ingest.NewIngestor(githubClient, repo)

	s := &server{
		cfg:      cfg,
		repo:     repo,
		db:       db,
		scorer:   scorer,
		ingestor: ingestor,
		metrics:  metrics,
		logger:   appLogger,
		limiter:  limiter,
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: newRouter(s),
	}

	go func() {
		slog.Info("Starting server", "addr", cfg.Addr, "model_dir", cfg.ModelDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// featureConfig translates the analysis settings into the extractor's form.
func featureConfig(cfg *config.Config) (features.Config, error) {
	loc, err := time.LoadLocation(cfg.Analysis.Timezone)
	if err != nil {
		return features.Config{}, err
	}

	weekend := make(map[time.Weekday]bool, len(cfg.Analysis.WeekendDays))
	for _, d := range cfg.Analysis.WeekendDays {
		weekend[time.Weekday(d)] = true
	}

	return features.Config{
		WindowDays:      cfg.Analysis.WindowDays,
		WorkStartHour:   cfg.Analysis.WorkStartHour,
		WorkEndHour:     cfg.Analysis.WorkEndHour,
		WeekendDays:     weekend,
		Location:        loc,
		HighValuePoints: cfg.Analysis.HighValuePoints,
	}, nil
}
