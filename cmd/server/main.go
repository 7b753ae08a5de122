package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/ttparse/internal/config"
	"github.com/JonMunkholm/ttparse/internal/core"
	_ "github.com/JonMunkholm/ttparse/internal/core/tables" // Register all profiles
	"github.com/JonMunkholm/ttparse/internal/logging"
	"github.com/JonMunkholm/ttparse/internal/lookup"
	"github.com/JonMunkholm/ttparse/internal/service"
	"github.com/JonMunkholm/ttparse/internal/store"
	"github.com/JonMunkholm/ttparse/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	backend, closeBackend, err := openBackend(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	opts := service.Options{
		DefaultProfile: cfg.Parser.Profile,
		Workers:        cfg.Parser.Workers,
		MaxConcurrent:  cfg.Upload.MaxConcurrent,
		MaxWait:        cfg.Upload.MaxWaitTime,
		Timeout:        cfg.Upload.Timeout,
		SentinelFills:  cfg.Parser.SentinelFills,
		LookupPaths: lookup.Paths{
			lookup.KindCourses:   cfg.Lookups.CoursesPath,
			lookup.KindFaculty:   cfg.Lookups.FacultyPath,
			lookup.KindElectives: cfg.Lookups.ElectivesPath,
		},
	}
	if cfg.Parser.HasThresholds() {
		opts.Thresholds = core.Thresholds{StartPM: cfg.Parser.StartPMHour, EndPM: cfg.Parser.EndPMHour}
	}
	if cfg.Parser.CorrectionsFile != "" {
		opts.Corrections, err = core.LoadCorrectionsFile(cfg.Parser.CorrectionsFile)
		if err != nil {
			slog.Error("failed to load corrections", "path", cfg.Parser.CorrectionsFile, "error", err)
			os.Exit(1)
		}
	}

	svc, err := service.New(backend, opts)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	if err := svc.LoadLookups(ctx); err != nil {
		slog.Error("failed to load lookups", "error", err)
		os.Exit(1)
	}

	slog.Info("profiles registered", "count", core.ProfileCount(), "default", cfg.Parser.Profile)
	for _, p := range core.Profiles() {
		slog.Debug("profile", "key", p.Key, "label", p.Label)
	}

	server := web.NewServer(svc, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := svc.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for parses to complete", "active", status.Active)
			if err := svc.WaitForParses(shutdownCtx); err != nil {
				slog.Warn("parses did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openBackend connects to Postgres when a URL is configured and falls back
// to the in-memory store otherwise. The returned func releases the backend.
func openBackend(ctx context.Context, db config.DatabaseConfig) (store.Backend, func(), error) {
	if !db.Enabled() {
		slog.Warn("DATABASE_URL not set, keeping runs in memory", "capacity", db.MemoryRuns)
		return store.NewMemory(db.MemoryRuns), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	st := store.New(pool)
	if err := st.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return st, pool.Close, nil
}
