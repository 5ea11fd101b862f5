package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/catalog"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
)

// HistoryLimit is the number of score changes shown by /score.
const HistoryLimit = 5

// GameHandler handles game setup and standings.
type GameHandler struct {
	pool  *pgxpool.Pool
	store *repository.Store
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(pool *pgxpool.Pool, store *repository.Store) *GameHandler {
	return &GameHandler{pool: pool, store: store}
}

// HandleStart handles the /start and /help commands.
func (h *GameHandler) HandleStart(c tele.Context) error {
	return c.Send("🃏 Duel card game\n\n" +
		"/newgame <female|male> - start a game\n" +
		"/join <game_id> <female|male> - join your partner's game\n" +
		"/hand - show your hand\n" +
		"/complete <card_id> - complete a card\n" +
		"/veto <card_id> - veto a card and take the penalty\n" +
		"/win <card_id> · /lose <card_id> - report a win/loss card\n" +
		"/draw <serve|chance|snap|dare|spicy> - draw a card\n" +
		"/roll - roll a die for a dice card\n" +
		"/score - show the score")
}

// HandleNewGame handles /newgame <female|male>.
func (h *GameHandler) HandleNewGame(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Reply("❌ Usage: /newgame <female|male>")
	}
	gender, ok := parseGender(args[0])
	if !ok {
		return c.Reply("❌ Gender must be female or male")
	}
	if p, err := h.store.Players.GetByTelegramID(ctx, sender.ID); err == nil {
		return c.Reply(fmt.Sprintf("❌ You are already playing game #%d", p.GameID))
	}

	tgID := sender.ID
	seat := catalog.Seat{Name: displayName(sender), Gender: gender, TelegramID: &tgID}

	var game *model.Game
	err := repository.InTx(ctx, h.pool, func(s *repository.Store) error {
		var err error
		game, _, err = catalog.NewGame(ctx, s, fmt.Sprintf("%s's game", seat.Name), seat)
		return err
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to create game")
		return c.Reply("❌ Failed to create the game, please try again later")
	}

	log.Info().
		Int64("user_id", sender.ID).
		Int64("game_id", game.ID).
		Msg("Game created")

	return c.Reply(fmt.Sprintf(
		"🎲 Game #%d created\n\nYour partner joins with:\n/join %d %s",
		game.ID, game.ID, opposite(gender),
	))
}

// HandleJoin handles /join <game_id> <female|male>.
func (h *GameHandler) HandleJoin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 2 {
		return c.Reply("❌ Usage: /join <game_id> <female|male>")
	}
	gameID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Reply("❌ Invalid game ID")
	}
	gender, ok := parseGender(args[1])
	if !ok {
		return c.Reply("❌ Gender must be female or male")
	}
	if p, err := h.store.Players.GetByTelegramID(ctx, sender.ID); err == nil {
		return c.Reply(fmt.Sprintf("❌ You are already playing game #%d", p.GameID))
	}

	tgID := sender.ID
	err = repository.InTx(ctx, h.pool, func(s *repository.Store) error {
		_, err := catalog.Join(ctx, s, gameID, catalog.Seat{
			Name:       displayName(sender),
			Gender:     gender,
			TelegramID: &tgID,
		})
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrGameNotFound):
		return c.Reply("❌ Game not found")
	case errors.Is(err, catalog.ErrGameFull):
		return c.Reply("❌ That game already has two players")
	case errors.Is(err, catalog.ErrSeatTaken):
		return c.Reply(fmt.Sprintf("❌ That game already has a %s player", gender))
	default:
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("game_id", gameID).Msg("Failed to join game")
		return c.Reply("❌ Failed to join the game, please try again later")
	}

	log.Info().
		Int64("user_id", sender.ID).
		Int64("game_id", gameID).
		Msg("Game joined")

	return c.Reply(fmt.Sprintf("✅ You joined game #%d. Use /hand to see your cards", gameID))
}

// HandleScore handles the /score command.
func (h *GameHandler) HandleScore(c tele.Context) error {
	ctx := context.Background()
	p, err := seated(ctx, h.store, c)
	if err != nil {
		return c.Reply(msgNotSeated)
	}

	players, err := h.store.Players.ListByGame(ctx, p.GameID)
	if err != nil {
		return c.Reply("❌ Failed to load the score, please try again later")
	}
	history, err := h.store.Scores.ListByPlayer(ctx, p.GameID, p.ID, HistoryLimit)
	if err != nil {
		log.Warn().Err(err).Int64("player_id", p.ID).Msg("Failed to load score history")
	}
	return c.Reply(FormatStandings(players, history))
}

func parseGender(s string) (model.Gender, bool) {
	switch model.Gender(s) {
	case model.GenderFemale, model.GenderMale:
		return model.Gender(s), true
	}
	return "", false
}

func opposite(g model.Gender) model.Gender {
	if g == model.GenderFemale {
		return model.GenderMale
	}
	return model.GenderFemale
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return strconv.FormatInt(u.ID, 10)
}
