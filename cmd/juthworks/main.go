package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/api"
	"github.com/juthworks/webapp/internal/core/ports"
	"github.com/juthworks/webapp/internal/infrastructure/backend"
	"github.com/juthworks/webapp/internal/infrastructure/config"
	"github.com/juthworks/webapp/internal/infrastructure/session"
	"github.com/juthworks/webapp/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("configuration invalid")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, rdb, err := buildSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("redis close failed")
			}
		}()
	}

	client := backend.New(cfg.BackendURL, log)
	e := api.NewRouter(cfg, sessions, rdb, client, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("backend", cfg.BackendURL).
			Str("session_store", cfg.Session.Store).
			Msg("starting juthworks web gateway")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildSessionStore selects the configured session backend. The returned
// redis client is nil for the in-memory store.
func buildSessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.SessionStore, *redis.Client, error) {
	switch cfg.Session.Store {
	case "memory":
		log.Warn().Msg("using in-memory session store, sessions will not survive restarts")
		return session.NewMemoryStore(), nil, nil
	default:
		rdb, err := session.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb, cfg.Session.TTL), rdb, nil
	}
}
