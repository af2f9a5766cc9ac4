package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/ubook/internal/access"
	"github.com/p-n-ai/ubook/internal/activity"
	"github.com/p-n-ai/ubook/internal/api"
	"github.com/p-n-ai/ubook/internal/curriculum"
	"github.com/p-n-ai/ubook/internal/directory"
	"github.com/p-n-ai/ubook/internal/platform/cache"
	"github.com/p-n-ai/ubook/internal/platform/config"
	"github.com/p-n-ai/ubook/internal/platform/database"
	"github.com/p-n-ai/ubook/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from config. Unknown levels fall back to info.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

type app struct {
	mux     *http.ServeMux
	closers []func()
	checks  []storage.HealthChecker
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build connects the configured backends, loads the catalog and mounts
// every route.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	role, err := access.ParseRole(cfg.Access.DefaultRole)
	if err != nil {
		return nil, fmt.Errorf("UBOOK_ACCESS_DEFAULT_ROLE: %w", err)
	}

	var db *database.DB
	if cfg.NeedsDatabase() {
		db, err = database.New(ctx, cfg.Database)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, db.Close)
		a.checks = append(a.checks, db)
		if err := db.EnsureSchema(ctx); err != nil {
			return fail(err)
		}
	}

	kv, err := openStorage(ctx, cfg, db, a)
	if err != nil {
		return fail(err)
	}

	hub := api.NewHub()
	events := activity.Multi{hub}
	if cfg.Activity.Persist && db != nil {
		events = append(events, activity.NewPostgresLogger(db.Pool))
	}

	opts := []curriculum.Option{
		curriculum.WithKey(cfg.Storage.CatalogKey),
		curriculum.WithEventLogger(events),
	}
	if cfg.Storage.SeedDir != "" {
		dir := cfg.Storage.SeedDir
		opts = append(opts, curriculum.WithSeed(func() ([]curriculum.Course, error) {
			return curriculum.LoadSeedDir(dir)
		}))
	}
	store := curriculum.NewStore(kv, opts...)
	if err := store.Load(ctx); err != nil {
		return fail(err)
	}

	seed, err := directory.DefaultSeed()
	if err != nil {
		return fail(err)
	}

	server := api.NewServer(store, directory.New(seed, events), api.WithHub(hub), api.WithDefaultRole(role))
	if hc, ok := kv.(storage.HealthChecker); ok {
		a.checks = append(a.checks, hc)
	}
	a.mux = newMux(a.checks...)
	server.Register(a.mux)
	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, db *database.DB, a *app) (storage.KeyValue, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return storage.NewFileKV(cfg.Storage.FileDir)
	case config.BackendPostgres:
		return storage.NewPostgresKV(db.Pool)
	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		a.checks = append(a.checks, c)
		return c.Records()
	default:
		slog.Warn("using in-memory storage, catalog changes will not survive a restart")
		return storage.NewMemoryKV(), nil
	}
}

// newMux creates the HTTP router with health check endpoints.
func newMux(checks ...storage.HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(checks))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz pings every remote dependency: database, cache and the
// catalog backend.
func handleReadyz(checks []storage.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, hc := range checks {
			if err := hc.HealthCheck(ctx); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
