package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
)

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	store      *repository.Store
	dispatcher *Dispatcher
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store *repository.Store, dispatcher *Dispatcher) *AdminHandler {
	return &AdminHandler{store: store, dispatcher: dispatcher}
}

// HandleAdjust handles the /adjust command.
// Format: /adjust <player_id> <delta>
func (h *AdminHandler) HandleAdjust(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	playerID, delta, err := parseAdjustArgs(c.Args())
	if err != nil {
		return c.Reply(err.Error())
	}

	target, err := h.store.Players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return c.Reply("❌ Player not found")
		}
		return c.Reply("❌ Operation failed, please try again later")
	}

	resp := h.dispatcher.Adjust(ctx, target.GameID, target.ID, delta, h.actingPlayer(ctx, sender.ID, target))
	if !resp.Success {
		return c.Reply(FormatResponse(resp, nil))
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("player_id", target.ID).
		Int64("game_id", target.GameID).
		Int64("delta", delta).
		Str("operation", "adjust_score").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Score adjusted\n\n👤 %s (ID: %d)\n%+d points\n💰 Score: %d",
		target.Name, target.ID, delta, target.Score+delta,
	))
}

// actingPlayer is the admin's own player when seated in the same game, else the target.
func (h *AdminHandler) actingPlayer(ctx context.Context, adminID int64, target *model.Player) int64 {
	p, err := h.store.Players.GetByTelegramID(ctx, adminID)
	if err != nil || p.GameID != target.GameID {
		return target.ID
	}
	return p.ID
}

func parseAdjustArgs(args []string) (playerID, delta int64, err error) {
	if len(args) != 2 {
		return 0, 0, errors.New("❌ Usage: /adjust <player_id> <delta>")
	}
	playerID, err = strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, errors.New("❌ Invalid player ID")
	}
	delta, err = strconv.ParseInt(args[1], 10, 64)
	if err != nil || delta == 0 {
		return 0, 0, errors.New("❌ Delta must be a non-zero integer")
	}
	return playerID, delta, nil
}
