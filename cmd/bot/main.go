// Package main is the entry point for the duel card game Telegram bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/bot"
	"duel-game-bot/internal/catalog"
	"duel-game-bot/internal/config"
	"duel-game-bot/internal/engine"
	"duel-game-bot/internal/handler"
	"duel-game-bot/internal/notify"
	"duel-game-bot/internal/pkg/db"
	"duel-game-bot/internal/pkg/lock"
	"duel-game-bot/internal/pkg/retry"
	"duel-game-bot/internal/repository"
	"duel-game-bot/internal/scheduler"
	"duel-game-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	if err := catalog.Seed(ctx, repository.NewCardRepository(dbPool.Pool)); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed card catalog")
	}
	log.Info().Int("cards", len(catalog.Cards)).Msg("Card catalog seeded")

	rdb, err := db.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	teleBot, err := bot.NewTeleBot(&cfg.Bot)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	eng := engine.New(dbPool.Pool, service.NewScoreLedger(),
		engine.WithScheduler(scheduler.NewRedisQueue(rdb, cfg.Redis.QueueKey)),
		engine.WithNotifier(notify.Fanout{
			notify.LogNotifier{},
			bot.NewTelegramNotifier(teleBot, repository.NewPlayerRepository(dbPool.Pool)),
		}),
		engine.WithRetryPolicy(retry.Policy{
			MaxRetries: cfg.Engine.MaxRetries,
			MinBackoff: cfg.Engine.MinBackoff,
			MaxBackoff: cfg.Engine.MaxBackoff,
		}),
		engine.WithSnapDareVetoPenalty(cfg.Engine.SnapDareVetoPenalty),
	)

	telegramBot := bot.New(teleBot, &bot.Dependencies{
		Config:     cfg,
		Pool:       dbPool.Pool,
		Dispatcher: handler.NewDispatcher(eng),
		InFlight:   lock.NewInFlight(),
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
