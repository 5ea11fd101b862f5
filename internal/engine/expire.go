package engine

import (
	"errors"
	"fmt"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
)

// expire fires a timer once. A recurring effect charges its owner and rearms on a new timer
// of the same length. Otherwise the timer's effects are removed and its card discarded,
// except cards that roll dice, which stay in hand to be completed by hand.
func (t *txn) expire(timerID int64) error {
	peek, err := t.s.Timers.GetByID(t.ctx, timerID)
	if err != nil {
		if errors.Is(err, repository.ErrTimerNotFound) {
			t.log.Debug().Msg("Timer already gone")
			return nil
		}
		return err
	}

	if _, _, err := t.begin(peek.GameID, peek.PlayerID); err != nil {
		return err
	}

	timer, err := t.s.Timers.GetForUpdate(t.ctx, timerID)
	if err != nil {
		if errors.Is(err, repository.ErrTimerNotFound) {
			return nil
		}
		return err
	}
	if !timer.IsActive {
		t.log.Debug().Msg("Timer already fired")
		return nil
	}

	effects, err := t.s.Effects.ListByTimer(t.ctx, timer.ID)
	if err != nil {
		return err
	}

	var recurring *model.ActiveEffect
	for _, e := range effects {
		if e.EffectType == model.EffectRecurringTimer {
			recurring = e
			break
		}
	}

	t.expired = append(t.expired, timer)

	if recurring != nil {
		return t.tick(timer, recurring, effects)
	}

	var o Outcome
	o.Remove = effects

	var c *model.Card
	if timer.CardID != nil {
		if c, err = t.card(*timer.CardID); err != nil {
			return err
		}
	}

	// A dice card keeps its fired timer so completing it later resolves the card.
	// Any other fired timer is dropped, or it would keep the next copy of its card in use.
	if c != nil && c.RollsDice {
		if _, err := t.s.Timers.Deactivate(t.ctx, timer.ID); err != nil {
			return err
		}
		o.Messages = append(o.Messages, fmt.Sprintf("%s timer is up, complete it when ready", c.Name))
		return t.apply(&o)
	}

	if err := t.s.Timers.Delete(t.ctx, timer.ID); err != nil {
		return err
	}
	if c != nil {
		o.Discard = append(o.Discard, Discard{PlayerID: timer.PlayerID, CardID: c.ID, HandType: model.HandChance})
		o.Messages = append(o.Messages, fmt.Sprintf("%s expired", c.Name))
	}
	return t.apply(&o)
}

// tick charges a recurring effect's per-tick penalty and moves its effects to a fresh timer.
func (t *txn) tick(timer *model.Timer, recurring *model.ActiveEffect, effects []*model.ActiveEffect) error {
	c, err := t.card(recurring.CardID)
	if err != nil {
		return err
	}

	next, err := t.startTimer(timer.PlayerID, c, timer.DurationMinutes, effects)
	if err != nil {
		return err
	}
	if err := t.s.Timers.Delete(t.ctx, timer.ID); err != nil {
		return err
	}

	t.actor = recurring.PlayerID
	var o Outcome
	if n := tickPenalty(recurring.EffectValue); n > 0 {
		o.Deltas.add(recurring.PlayerID, -n)
		o.Penalties = append(o.Penalties, fmt.Sprintf("%s loses %d points to %s", t.st.Player(recurring.PlayerID).Name, n, c.Name))
	}
	o.Messages = append(o.Messages, fmt.Sprintf("%s ticks again at %s", c.Name, next.EndAt.Format("15:04")))
	return t.apply(&o)
}
