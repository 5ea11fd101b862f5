package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/lock"
	"duel-game-bot/internal/repository"
)

const (
	msgNotSeated = "❌ You are not in a game yet. Use /newgame or /join first"
	msgInFlight  = "⏳ Your previous action is still running"
	msgLoadHand  = "❌ Failed to load your hand, please try again later"
)

// CardHandler handles hand, play and draw commands.
type CardHandler struct {
	store      *repository.Store
	dispatcher *Dispatcher
	inFlight   *lock.InFlight
	now        func() time.Time
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(store *repository.Store, dispatcher *Dispatcher, inFlight *lock.InFlight) *CardHandler {
	return &CardHandler{
		store:      store,
		dispatcher: dispatcher,
		inFlight:   inFlight,
		now:        time.Now,
	}
}

// HandleHand handles the /hand command.
func (h *CardHandler) HandleHand(c tele.Context) error {
	ctx := context.Background()
	p, err := seated(ctx, h.store, c)
	if err != nil {
		return c.Reply(msgNotSeated)
	}

	msg, markup, err := h.handPanel(ctx, p)
	if err != nil {
		log.Error().Err(err).Int64("player_id", p.ID).Msg("Failed to load hand")
		return c.Reply(msgLoadHand)
	}
	return c.Send(msg, markup)
}

// HandleComplete handles /complete <hand_card_id>.
func (h *CardHandler) HandleComplete(c tele.Context) error {
	return h.handCommand(c, ActionComplete, "/complete <card_id>")
}

// HandleVeto handles /veto <hand_card_id>.
func (h *CardHandler) HandleVeto(c tele.Context) error {
	return h.handCommand(c, ActionVeto, "/veto <card_id>")
}

// HandleWin handles /win <hand_card_id>.
func (h *CardHandler) HandleWin(c tele.Context) error {
	return h.handCommand(c, ActionWin, "/win <card_id>")
}

// HandleLose handles /lose <hand_card_id>.
func (h *CardHandler) HandleLose(c tele.Context) error {
	return h.handCommand(c, ActionLose, "/lose <card_id>")
}

// HandleDraw handles /draw <serve|chance|snap|dare|spicy>.
func (h *CardHandler) HandleDraw(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("❌ Usage: /draw <serve|chance|snap|dare|spicy>")
	}

	ctx := context.Background()
	p, err := seated(ctx, h.store, c)
	if err != nil {
		return c.Reply(msgNotSeated)
	}

	resp, err := h.run(ctx, c.Sender().ID, Request{
		Action:   ActionDraw,
		GameID:   p.GameID,
		PlayerID: p.ID,
		CardType: model.CardType(args[0]),
	})
	if err != nil {
		return c.Reply(msgInFlight)
	}
	return c.Reply(FormatResponse(resp, h.names(ctx, p.GameID)))
}

// HandleRoll handles /roll, which rolls a Telegram die for cards that ask for one.
func (h *CardHandler) HandleRoll(c tele.Context) error {
	ctx := context.Background()
	p, err := seated(ctx, h.store, c)
	if err != nil {
		return c.Reply(msgNotSeated)
	}

	diceMsg, err := c.Bot().Send(c.Chat(), tele.Cube)
	if err != nil {
		log.Error().Err(err).Int64("player_id", p.ID).Msg("Failed to roll dice")
		return c.Reply("❌ Failed to roll, please try again")
	}
	if diceMsg.Dice != nil {
		log.Info().
			Int64("game_id", p.GameID).
			Int64("player_id", p.ID).
			Int("value", diceMsg.Dice.Value).
			Msg("Dice rolled")
	}
	return nil
}

func (h *CardHandler) handCommand(c tele.Context, action, usage string) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("❌ Usage: " + usage)
	}
	handCardID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Reply("❌ Invalid card ID")
	}

	ctx := context.Background()
	p, err := seated(ctx, h.store, c)
	if err != nil {
		return c.Reply(msgNotSeated)
	}

	resp, err := h.run(ctx, c.Sender().ID, Request{
		Action:     action,
		GameID:     p.GameID,
		PlayerID:   p.ID,
		HandCardID: handCardID,
	})
	if err != nil {
		return c.Reply(msgInFlight)
	}
	return c.Reply(FormatResponse(resp, h.names(ctx, p.GameID)))
}

// HandleCardCallback handles hand panel buttons.
func (h *CardHandler) HandleCardCallback(c tele.Context) error {
	ctx := context.Background()
	callback := c.Callback()
	sender := c.Sender()

	if callback == nil || sender == nil {
		return nil
	}

	action, arg, ok := ParseCallback(callback.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown button"})
	}

	p, err := seated(ctx, h.store, c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgNotSeated, ShowAlert: true})
	}

	if action != CallbackRefresh {
		req := Request{Action: action, GameID: p.GameID, PlayerID: p.ID}
		if action == ActionDraw {
			req.CardType = model.CardType(arg)
		} else {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid card ID"})
			}
			req.HandCardID = id
		}

		resp, err := h.run(ctx, sender.ID, req)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: msgInFlight})
		}
		if !resp.Success {
			return c.Respond(&tele.CallbackResponse{
				Text:      FormatResponse(resp, nil),
				ShowAlert: true,
			})
		}
		c.Respond(&tele.CallbackResponse{Text: "✅"})
		if err := c.Send(FormatResponse(resp, h.names(ctx, p.GameID))); err != nil {
			log.Warn().Err(err).Int64("player_id", p.ID).Msg("Failed to send action result")
		}

		// The score changed; reload it for the panel.
		if p, err = h.store.Players.GetByID(ctx, p.ID); err != nil {
			return nil
		}
	}

	msg, markup, err := h.handPanel(ctx, p)
	if err != nil {
		log.Error().Err(err).Int64("player_id", p.ID).Msg("Failed to load hand")
		return c.Respond(&tele.CallbackResponse{Text: msgLoadHand, ShowAlert: true})
	}
	return c.Edit(msg, markup)
}

// run dispatches one action while holding the sender's in-flight slot.
func (h *CardHandler) run(ctx context.Context, userID int64, req Request) (*Response, error) {
	var resp *Response
	err := h.inFlight.Do(userID, func() error {
		resp = h.dispatcher.Dispatch(ctx, req)
		return nil
	})
	if errors.Is(err, lock.ErrBusy) {
		log.Debug().Int64("user_id", userID).Str("action", req.Action).Msg("Action dropped while another is running")
	}
	return resp, err
}

func (h *CardHandler) handPanel(ctx context.Context, p *model.Player) (string, *tele.ReplyMarkup, error) {
	entries, err := h.store.Hands.ListByPlayer(ctx, p.GameID, p.ID)
	if err != nil {
		return "", nil, err
	}
	hand := make([]HandCard, 0, len(entries))
	for _, e := range entries {
		card, err := h.store.Cards.GetByID(ctx, e.CardID)
		if err != nil {
			return "", nil, fmt.Errorf("hand entry %d: %w", e.ID, err)
		}
		hand = append(hand, HandCard{Entry: e, Card: card})
	}

	effects, err := h.effectsFor(ctx, p)
	if err != nil {
		return "", nil, err
	}
	return FormatHand(p, hand, effects), BuildHandPanel(hand, p.Gender), nil
}

// effectsFor lists the effects a player owns or is targeted by.
func (h *CardHandler) effectsFor(ctx context.Context, p *model.Player) ([]EffectInfo, error) {
	all, err := h.store.Effects.ListByGame(ctx, p.GameID)
	if err != nil {
		return nil, err
	}

	var out []EffectInfo
	for _, e := range all {
		if e.PlayerID != p.ID && e.ResolvedTarget() != p.ID {
			continue
		}
		info := EffectInfo{CardID: e.CardID, Value: e.EffectValue}
		if card, err := h.store.Cards.GetByID(ctx, e.CardID); err == nil {
			info.CardName = card.Name
		}
		if e.TimerID != nil {
			t, err := h.store.Timers.GetByID(ctx, *e.TimerID)
			if err == nil {
				info.Remaining = t.EndAt.Sub(h.now())
			} else if !errors.Is(err, repository.ErrTimerNotFound) {
				return nil, err
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func (h *CardHandler) names(ctx context.Context, gameID int64) map[int64]string {
	players, err := h.store.Players.ListByGame(ctx, gameID)
	if err != nil {
		return nil
	}
	names := make(map[int64]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names
}

// seated returns the player bound to the sender's Telegram account.
func seated(ctx context.Context, store *repository.Store, c tele.Context) (*model.Player, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, repository.ErrPlayerNotFound
	}
	return store.Players.GetByTelegramID(ctx, sender.ID)
}
