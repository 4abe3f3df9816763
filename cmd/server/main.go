package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/heritagequest/internal/cache"
	"github.com/playperu/heritagequest/internal/config"
	"github.com/playperu/heritagequest/internal/database"
	"github.com/playperu/heritagequest/internal/handler/health"
	"github.com/playperu/heritagequest/internal/heritage"
	"github.com/playperu/heritagequest/internal/migrations"
	"github.com/playperu/heritagequest/internal/server"
	"github.com/playperu/heritagequest/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "migrations_applied", applied)

	st := store.New(db, logger, cfg.TxRetryMax)
	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, st, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	// --- Redis ---
	rdb, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("connected to redis")
	} else {
		logger.Info("redis not configured, leaderboard cache disabled")
	}
	lbCache := cache.New(rdb, cfg.LeaderboardTTL, logger)

	// --- HTTP Server ---
	deps := server.Deps{
		Service: heritage.NewService(st),
		Reads:   st,
		Admin:   st,
		Cache:   lbCache,
		Auth:    server.NewAuthenticator(cfg.JWTSecret),
	}
	srv := server.New(cfg.HTTPAddr, logger, deps, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger,
			health.Check{Name: "sqlite", Checker: health.CheckerFunc(db.PingContext)},
			health.Check{Name: "redis", Checker: lbCache, Optional: true},
		).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
