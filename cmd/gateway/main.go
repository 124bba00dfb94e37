package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/internal/config"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/cache"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/client"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/logging"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", os.Getenv("GATEWAY_CONFIG"), "path to config file (optional, env vars apply either way)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallbackLogger := logging.Setup(logging.DefaultConfig())
		fallbackLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	limiter, err := ratelimit.New(ratelimit.Config{
		ShortLimit:  cfg.Riot.ShortLimit,
		ShortPeriod: cfg.Riot.ShortPeriod,
		LongLimit:   cfg.Riot.LongLimit,
		LongPeriod:  cfg.Riot.LongPeriod,
	}, logging.NewLogger("rate-limiter"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build rate limiter")
	}

	riot, err := client.New(client.Config{
		Keys:    cfg.Riot.APIKeys,
		Limiter: limiter,
		Timeout: cfg.Server.RequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build Riot client")
	}

	store := cache.NewRedisStore(rdb)
	orchestrator := cache.NewOrchestrator(store, cache.NewRedisLedger(rdb))

	server := NewServer(cfg, riot, orchestrator, store, rdb, logging.NewLogger("gateway"))

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.Server.ListenAddr).
		Int("api_keys", len(cfg.Riot.APIKeys)).
		Str("default_region", cfg.Riot.DefaultRegion).
		Msg("Starting gateway")

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}
