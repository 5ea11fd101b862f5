// Package main runs the timer expiry worker. Any number of instances may run;
// each due job is claimed by exactly one of them.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/bot"
	"duel-game-bot/internal/config"
	"duel-game-bot/internal/engine"
	"duel-game-bot/internal/notify"
	"duel-game-bot/internal/pkg/db"
	"duel-game-bot/internal/pkg/retry"
	"duel-game-bot/internal/repository"
	"duel-game-bot/internal/scheduler"
	"duel-game-bot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	rdb, err := db.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	queue := scheduler.NewRedisQueue(rdb, cfg.Redis.QueueKey)

	notifiers := notify.Fanout{notify.LogNotifier{}}
	if cfg.Bot.Token != "" {
		teleBot, err := bot.NewTeleBot(&cfg.Bot)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
		notifiers = append(notifiers, bot.NewTelegramNotifier(teleBot, repository.NewPlayerRepository(dbPool.Pool)))
	} else {
		log.Warn().Msg("No bot token configured, timer notifications go to the log only")
	}

	eng := engine.New(dbPool.Pool, service.NewScoreLedger(),
		engine.WithScheduler(queue),
		engine.WithNotifier(notifiers),
		engine.WithRetryPolicy(retry.Policy{
			MaxRetries: cfg.Engine.MaxRetries,
			MinBackoff: cfg.Engine.MinBackoff,
			MaxBackoff: cfg.Engine.MaxBackoff,
		}),
		engine.WithSnapDareVetoPenalty(cfg.Engine.SnapDareVetoPenalty),
	)

	poller := scheduler.NewPoller(queue, repository.NewTimerRepository(dbPool.Pool), eng, scheduler.Config{
		Interval:   cfg.Timers.PollInterval,
		BatchSize:  cfg.Timers.BatchSize,
		SweepGrace: cfg.Timers.SweepGrace,
		RetryDelay: cfg.Timers.RetryDelay,
	})

	log.Info().Dur("interval", cfg.Timers.PollInterval).Msg("Timer worker started")
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Timer worker stopped")
		return
	}
	log.Info().Msg("Timer worker stopped gracefully")
}
