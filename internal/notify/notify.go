// Package notify delivers fire-and-forget game notifications.
// Delivery failures are reported to the caller for logging only; they never undo game state.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/service"
)

// Notifier is told about events after the unit of work that caused them has committed.
type Notifier interface {
	LeadChanged(ctx context.Context, change *service.LeadChange) error
	TimerExpired(ctx context.Context, timer *model.Timer) error
}

// LogNotifier writes notifications to the global zerolog logger.
type LogNotifier struct{}

// LeadChanged logs the new leader.
func (LogNotifier) LeadChanged(_ context.Context, change *service.LeadChange) error {
	ev := log.Info().
		Int64("game_id", change.GameID).
		Int64("previous_leader", change.PreviousLeader).
		Int64("new_leader", change.NewLeader)
	for _, p := range change.Players {
		ev = ev.Int64(p.Name, p.Score)
	}
	ev.Msg("Lead changed")
	return nil
}

// TimerExpired logs the fired timer.
func (LogNotifier) TimerExpired(_ context.Context, timer *model.Timer) error {
	log.Info().
		Int64("game_id", timer.GameID).
		Int64("player_id", timer.PlayerID).
		Int64("timer_id", timer.ID).
		Str("description", timer.Description).
		Msg("Timer expired")
	return nil
}

// Fanout sends every notification to each notifier and joins their errors.
type Fanout []Notifier

// LeadChanged implements Notifier.
func (f Fanout) LeadChanged(ctx context.Context, change *service.LeadChange) error {
	var errs []error
	for _, n := range f {
		if err := n.LeadChanged(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TimerExpired implements Notifier.
func (f Fanout) TimerExpired(ctx context.Context, timer *model.Timer) error {
	var errs []error
	for _, n := range f {
		if err := n.TimerExpired(ctx, timer); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
