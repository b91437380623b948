// Command promptforge runs the prompt version-control and composition
// service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go/jetstream"

	httpadapter "github.com/promptforge/promptforge/internal/adapter/http"
	natsadapter "github.com/promptforge/promptforge/internal/adapter/nats"
	"github.com/promptforge/promptforge/internal/adapter/natskv"
	"github.com/promptforge/promptforge/internal/adapter/otel"
	"github.com/promptforge/promptforge/internal/adapter/postgres"
	"github.com/promptforge/promptforge/internal/adapter/ristretto"
	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/domain/role"
	"github.com/promptforge/promptforge/internal/logger"
	"github.com/promptforge/promptforge/internal/middleware"
	"github.com/promptforge/promptforge/internal/port/cache"
	"github.com/promptforge/promptforge/internal/resilience"
	"github.com/promptforge/promptforge/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("promptforge exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Init(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	queue, err := natsadapter.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() {
		if err := queue.Drain(); err != nil {
			slog.Warn("nats drain", "error", err)
		}
	}()

	// Idempotency-Key replay for mutating routes. Degraded, not fatal, when
	// the bucket cannot be created.
	var idem func(http.Handler) http.Handler
	kv, err := queue.KeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: cfg.Idempotency.Bucket,
		TTL:    cfg.Idempotency.TTL,
	})
	if err != nil {
		slog.Warn("idempotency bucket unavailable, replay disabled", "error", err)
	} else {
		idem = middleware.Idempotency(kv)
	}

	resolveCache, closeCache, err := buildResolveCache(ctx, cfg.Cache, queue)
	if err != nil {
		return fmt.Errorf("resolve cache: %w", err)
	}
	defer closeCache()

	table := role.NewTable(cfg.Roles)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	notifier := service.NewNotifierService(store, queue, breaker)
	registry := service.NewRegistryService(store)
	vcs := service.NewVersionControlService(store, notifier, cfg.History)
	resolver := service.NewResolverService(store, resolveCache, table, cfg.Cache.VersionTTL)

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	handlers := httpadapter.NewHandlers(registry, vcs, resolver, queue, metrics)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.Server.CORSOrigin))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}
	httpadapter.MountRoutes(r, handlers, idem)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("promptforge listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// buildResolveCache picks the cache backend: in-process ristretto by
// default, a shared NATS KV bucket when configured.
func buildResolveCache(ctx context.Context, cfg config.Cache, queue *natsadapter.Queue) (cache.Cache, func(), error) {
	if cfg.Shared {
		kv, err := queue.KeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: cfg.Bucket,
			TTL:    cfg.VersionTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return natskv.New(kv), func() {}, nil
	}

	c, err := ristretto.New(cfg.MaxSizeMB << 20)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
