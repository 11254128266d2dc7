// Command plateful runs the recipe-sharing API server. All external clients
// (database, key-value store) are constructed here, injected downward, and
// closed here on shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plateful/plateful/httpapi"
	"github.com/plateful/plateful/kv"
	"github.com/plateful/plateful/pkg/di"
	"github.com/plateful/plateful/session"
	"github.com/plateful/plateful/store"
	"github.com/plateful/plateful/webcache"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kvCfg := kv.DefaultConfig()
	if addr := os.Getenv("PLATEFUL_REDIS_ADDR"); addr != "" {
		kvCfg.Backend = kv.BackendRedis
		kvCfg.RedisAddr = addr
		kvCfg.RedisPassword = os.Getenv("PLATEFUL_REDIS_PASSWORD")
		kvCfg.RedisDB = envInt("PLATEFUL_REDIS_DB", 0)
	}

	var sessionOpts []session.Option
	if os.Getenv("PLATEFUL_AUTH_FAIL_MODE") == "propagate" {
		sessionOpts = append(sessionOpts, session.WithFailurePolicy(session.Propagate))
	}

	container, err := di.NewContainer(kvCfg, logger, sessionOpts...)
	if err != nil {
		return err
	}
	defer container.Close()

	db, err := store.Open(envOr("PLATEFUL_DB_DSN", "plateful.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	server := httpapi.New(httpapi.Deps{
		Users:       store.NewUsers(db),
		Recipes:     store.NewRecipes(db),
		Reviews:     store.NewReviews(db),
		Sessions:    container.Sessions(),
		Cache:       container.Cache(),
		Invalidator: container.Invalidator(),
		Logger:      logger,
	}, time.Duration(envInt("PLATEFUL_CACHE_TTL_SECONDS", int(webcache.DefaultTTL/time.Second)))*time.Second)

	addr := envOr("PLATEFUL_ADDR", ":8080")
	logger.Info("server starting", "addr", addr, "kv_backend", kvCfg.Backend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, addr)
	})
	return g.Wait()
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
