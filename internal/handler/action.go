// Package handler turns player actions into engine calls and engine results into replies.
package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/engine"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/retry"
)

// Action names accepted by Dispatch.
const (
	ActionComplete = "complete_hand_card"
	ActionVeto     = "veto_hand_card"
	ActionWin      = "win_hand_card"
	ActionLose     = "lose_hand_card"
	ActionDraw     = "manual_draw"
)

// Engine is the part of the effect engine the dispatcher drives.
type Engine interface {
	CompleteCard(ctx context.Context, gameID, playerID, handCardID int64) (*engine.Result, error)
	VetoCard(ctx context.Context, gameID, playerID, handCardID int64) (*engine.Result, error)
	WinLossCard(ctx context.Context, gameID, playerID, handCardID int64, outcome model.Outcome) (*engine.Result, error)
	DrawCard(ctx context.Context, gameID, playerID int64, cardType model.CardType) (*engine.Result, error)
	AdjustScore(ctx context.Context, gameID, playerID, delta, actingPlayerID int64) (*engine.Result, error)
}

// Request is one named action from an identified player.
type Request struct {
	Action     string         `json:"action"`
	GameID     int64          `json:"game_id"`
	PlayerID   int64          `json:"player_id"`
	HandCardID int64          `json:"hand_card_id,omitempty"`
	CardType   model.CardType `json:"card_type,omitempty"`
}

// Response is the result of an action as shown to clients.
type Response struct {
	Success       bool                `json:"success"`
	ScoreChanges  []model.ScoreDelta  `json:"score_changes"`
	DrawnCards    []model.CardSummary `json:"drawn_cards,omitempty"`
	Message       string              `json:"message"`
	Penalties     []string            `json:"penalties,omitempty"`
	BlockingCards []string            `json:"blocking_cards,omitempty"`
}

// Messages shown when an action fails for reasons the player cannot fix.
const (
	msgUnknownAction = "Unknown action"
	msgBusy          = "The game is busy, please try again"
	msgFailed        = "Something went wrong, please try again later"
)

// Dispatcher routes named actions to the engine.
type Dispatcher struct {
	engine Engine
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(e Engine) *Dispatcher {
	return &Dispatcher{engine: e}
}

// Dispatch runs one action. It never returns nil; failures come back with Success unset.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Response {
	var (
		res *engine.Result
		err error
	)

	switch req.Action {
	case ActionComplete:
		res, err = d.engine.CompleteCard(ctx, req.GameID, req.PlayerID, req.HandCardID)
	case ActionVeto:
		res, err = d.engine.VetoCard(ctx, req.GameID, req.PlayerID, req.HandCardID)
	case ActionWin:
		res, err = d.engine.WinLossCard(ctx, req.GameID, req.PlayerID, req.HandCardID, model.OutcomeWin)
	case ActionLose:
		res, err = d.engine.WinLossCard(ctx, req.GameID, req.PlayerID, req.HandCardID, model.OutcomeLoss)
	case ActionDraw:
		res, err = d.engine.DrawCard(ctx, req.GameID, req.PlayerID, req.CardType)
	default:
		return &Response{Message: msgUnknownAction, ScoreChanges: []model.ScoreDelta{}}
	}

	if err != nil {
		return failure(req, err)
	}
	return success(res)
}

// Adjust changes a score by hand on behalf of an acting player.
func (d *Dispatcher) Adjust(ctx context.Context, gameID, playerID, delta, actingPlayerID int64) *Response {
	res, err := d.engine.AdjustScore(ctx, gameID, playerID, delta, actingPlayerID)
	if err != nil {
		return failure(Request{Action: "adjust_score", GameID: gameID, PlayerID: playerID}, err)
	}
	return success(res)
}

func success(res *engine.Result) *Response {
	r := &Response{Success: true, ScoreChanges: []model.ScoreDelta{}}
	if res == nil {
		return r
	}
	if res.ScoreChanges != nil {
		r.ScoreChanges = res.ScoreChanges
	}
	r.DrawnCards = res.DrawnCards
	r.Penalties = res.Penalties
	r.Message = strings.Join(res.Messages, "\n")
	return r
}

// failure maps an engine error to a response. Validation messages are player-safe;
// everything else is logged and replaced by a generic message.
func failure(req Request, err error) *Response {
	r := &Response{ScoreChanges: []model.ScoreDelta{}}

	var v *engine.ValidationError
	switch {
	case errors.As(err, &v):
		r.Message = v.Message
		r.BlockingCards = v.Blocking
	case errors.Is(err, retry.ErrExhausted):
		log.Warn().Err(err).
			Str("action", req.Action).
			Int64("game_id", req.GameID).
			Int64("player_id", req.PlayerID).
			Msg("Action gave up after retries")
		r.Message = msgBusy
	default:
		log.Error().Err(err).
			Str("action", req.Action).
			Int64("game_id", req.GameID).
			Int64("player_id", req.PlayerID).
			Msg("Action failed")
		r.Message = msgFailed
	}
	return r
}
