package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pusoydos/pusoy-backend/internal/adapters/memory"
	pgstore "github.com/pusoydos/pusoy-backend/internal/adapters/postgres"
	redisstore "github.com/pusoydos/pusoy-backend/internal/adapters/redis"
	"github.com/pusoydos/pusoy-backend/internal/config"
	"github.com/pusoydos/pusoy-backend/internal/engine/pusoy"
	"github.com/pusoydos/pusoy-backend/internal/ports"
	transporthttp "github.com/pusoydos/pusoy-backend/internal/transport/http"
	"github.com/pusoydos/pusoy-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	var store ports.RoundStore
	switch {
	case cfg.DatabaseURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("pgxpool.New: %v", err)
		}
		defer pool.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := pool.Ping(pingCtx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		pingCancel()
		logger.Info("connected to postgres")
		store = pgstore.New(pool)

	case cfg.RedisAddr != "":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		pingCancel()
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
		store = redisstore.New(client)

	default:
		logger.Warn("no DATABASE_URL or REDIS_ADDR set, using in-memory store")
		store = memory.New()
	}

	engine := pusoy.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	deal := func(playerIDs []uint64) ([]byte, error) {
		return pusoy.NewDeal(playerIDs, rng)
	}

	identity := transporthttp.NewJWTIdentity(cfg.SessionSecret)
	policy := transporthttp.NewPolicy(cfg.BaseURL)

	h := transporthttp.NewHandlers(
		usecase.NewMoveSubmitter(store, engine, logger),
		usecase.NewRoundLister(store),
		usecase.NewRoundGetter(store),
		usecase.NewRoundCreator(store, deal, logger),
		identity,
		policy,
		logger,
	)

	e := transporthttp.New(h)
	logger.Info("starting", "port", cfg.Port)
	log.Fatal(e.Start(":" + cfg.Port))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
