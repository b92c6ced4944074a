package main // Entry point package

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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/spiderhome/internal/config"
	"github.com/iliyamo/spiderhome/internal/database"
	"github.com/iliyamo/spiderhome/internal/queue"
	"github.com/iliyamo/spiderhome/internal/router"
	"github.com/iliyamo/spiderhome/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot backend choice: MySQL when reachable, seeded memory otherwise.
	store, err := database.Select(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("selecting storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "error", err)
		}
	}()

	rdb, err := config.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, cache disabled", "error", err)
	}
	if rdb != nil {
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
	}

	invalidator := service.NewCacheInvalidator(rdb, cfg.Cache.Prefix, logger)
	publisher := service.NewPublisher(cfg.RabbitMQURL)
	notifier := service.NewNotifier(publisher, invalidator, logger)
	if publisher != nil {
		go func() {
			if err := queue.StartCatalogConsumer(ctx, cfg.RabbitMQURL, logger, invalidator.Invalidate); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("catalog consumer stopped", "error", err)
			}
		}()
	}

	e := router.New(router.Deps{
		Cfg:      cfg,
		Store:    store,
		Logger:   logger,
		Limiter:  service.NewLoginGuard(store.LoginAttempts(), rdb, cfg.LoginMaxFailures, cfg.LoginFailureWindow, logger),
		Notifier: notifier,
		Redis:    rdb,
	})
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "env", cfg.Env, "backend", store.Backend(),
			"cache", rdb != nil, "events", publisher != nil)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
