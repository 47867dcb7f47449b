package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/narou-export/internal/config"
	"github.com/Sternrassler/narou-export/pkg/cache"
	"github.com/Sternrassler/narou-export/pkg/client"
	"github.com/Sternrassler/narou-export/pkg/job"
	"github.com/Sternrassler/narou-export/pkg/logging"
	"github.com/Sternrassler/narou-export/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
	if cfg == nil {
		// Help was shown
		return
	}

	runID := uuid.NewString()
	logCfg := cfg.Logging()
	logCfg.RunID = runID
	logging.Setup(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
}

// run wires the client, optional cache and job together and executes one export.
func run(ctx context.Context, cfg *config.Config, runID string) error {
	log.Info().
		Str("version", cfg.Version).
		Str("endpoint", cfg.Endpoint).
		Str("output", cfg.Output).
		Str("dedupe_scope", string(cfg.DedupeScope)).
		Msg("Starting Narou export")

	clientCfg := cfg.Client()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, page cache disabled")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("Page cache enabled")
			clientCfg.Cache = cache.NewManager(redisClient)
		}
	}

	apiClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	result, runErr := job.New(apiClient, cfg.Job()).Run(ctx)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := metrics.Push(pushCtx, metrics.PushConfig{
			URL:   cfg.PushgatewayURL,
			Job:   metrics.DefaultJobName,
			RunID: runID,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to push metrics")
		}
	}

	if runErr != nil {
		return runErr
	}

	log.Info().
		Int("rows", result.Rows).
		Str("path", result.OutputPath).
		Msgf("Data written to %s", result.OutputPath)

	return nil
}
