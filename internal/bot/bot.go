// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/handler"
	"duel-game-bot/internal/pkg/lock"
	"duel-game-bot/internal/repository"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot   *tele.Bot
	cfg   *config.Config
	store *repository.Store
	users *PrivateUsers

	// Handlers
	gameHandler  *handler.GameHandler
	cardHandler  *handler.CardHandler
	adminHandler *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	Dispatcher *handler.Dispatcher
	InFlight   *lock.InFlight
}

// NewTeleBot creates the telebot instance. It is separate from New so the
// Telegram notifier can be built from it before the engine exists.
func NewTeleBot(cfg *config.BotConfig) (*tele.Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// New wires handlers and middleware onto an existing telebot instance.
func New(teleBot *tele.Bot, deps *Dependencies) *Bot {
	store := repository.NewStore(deps.Pool)

	b := &Bot{
		bot:   teleBot,
		cfg:   deps.Config,
		store: store,
		users: NewPrivateUsers(),
	}

	// Initialize handlers
	b.gameHandler = handler.NewGameHandler(deps.Pool, store)
	b.cardHandler = handler.NewCardHandler(store, deps.Dispatcher, deps.InFlight)
	b.adminHandler = handler.NewAdminHandler(store, deps.Dispatcher)

	b.registerMiddleware()
	b.registerHandlers()

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg, b.users, b.seated))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	// Game setup
	b.bot.Handle("/start", b.gameHandler.HandleStart)
	b.bot.Handle("/help", b.gameHandler.HandleStart)
	b.bot.Handle("/newgame", b.gameHandler.HandleNewGame)
	b.bot.Handle("/join", b.gameHandler.HandleJoin)
	b.bot.Handle("/score", b.gameHandler.HandleScore)

	// Cards
	b.bot.Handle("/hand", b.cardHandler.HandleHand)
	b.bot.Handle("/complete", b.cardHandler.HandleComplete)
	b.bot.Handle("/veto", b.cardHandler.HandleVeto)
	b.bot.Handle("/win", b.cardHandler.HandleWin)
	b.bot.Handle("/lose", b.cardHandler.HandleLose)
	b.bot.Handle("/draw", b.cardHandler.HandleDraw)
	b.bot.Handle("/roll", b.cardHandler.HandleRoll)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/adjust", b.adminHandler.HandleAdjust)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to appropriate handlers
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, "card_") {
		return b.cardHandler.HandleCardCallback(c)
	}
	return c.Respond(&tele.CallbackResponse{Text: "❌ This button has expired"})
}

func (b *Bot) seated(ctx context.Context, telegramID int64) bool {
	_, err := b.store.Players.GetByTelegramID(ctx, telegramID)
	return err == nil
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
