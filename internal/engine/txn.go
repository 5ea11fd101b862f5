package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
	"duel-game-bot/internal/service"
)

// txn is one attempt of one engine operation. It owns the transaction-scoped store
// and collects what must happen after commit.
type txn struct {
	ctx    context.Context
	e      *Engine
	s      *repository.Store
	st     *service.Standings
	log    zerolog.Logger
	res    *Result
	actor  int64
	cards  map[int64]*model.Card
	chains []chainReq

	leaderBefore int64
	lead         *service.LeadChange
	scheduled    []*model.Timer
	cancelled    []int64
	expired      []*model.Timer
}

func newTxn(ctx context.Context, e *Engine, s *repository.Store, logger zerolog.Logger) *txn {
	return &txn{
		ctx:   ctx,
		e:     e,
		s:     s,
		log:   logger,
		res:   &Result{},
		cards: make(map[int64]*model.Card),
	}
}

// begin locks the game's players and resolves the acting player and the opponent.
func (t *txn) begin(gameID, playerID int64) (*model.Player, *model.Player, error) {
	st, err := t.e.ledger.Snapshot(t.ctx, t.s, gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotReady) {
			return nil, nil, invalid(ErrPlayerNotFound, "game %d does not have two players", gameID)
		}
		return nil, nil, err
	}
	player := st.Player(playerID)
	if player == nil {
		return nil, nil, invalid(ErrPlayerNotFound, "player %d is not in game %d", playerID, gameID)
	}
	t.st = st
	t.actor = playerID
	t.leaderBefore = st.Leader()
	return player, st.Opponent(playerID), nil
}

func (t *txn) card(id int64) (*model.Card, error) {
	if c, ok := t.cards[id]; ok {
		return c, nil
	}
	c, err := t.s.Cards.GetByID(t.ctx, id)
	if err != nil {
		return nil, err
	}
	t.cards[id] = c
	return c, nil
}

// handCard loads and locks a hand entry the player holds, with its catalog card.
func (t *txn) handCard(gameID, playerID, handCardID int64) (*model.HandEntry, *model.Card, error) {
	entry, err := t.s.Hands.GetForUpdate(t.ctx, handCardID)
	if err != nil {
		if errors.Is(err, repository.ErrHandEntryNotFound) {
			return nil, nil, invalid(ErrCardNotFound, "card %d is not in your hand", handCardID)
		}
		return nil, nil, err
	}
	if entry.GameID != gameID || entry.PlayerID != playerID {
		return nil, nil, invalid(ErrCardNotFound, "card %d is not in your hand", handCardID)
	}
	c, err := t.card(entry.CardID)
	if err != nil {
		return nil, nil, err
	}
	return entry, c, nil
}

// apply writes an outcome in order: removals, discards, score changes, activation,
// chaining, draws.
func (t *txn) apply(o *Outcome) error {
	for _, e := range o.Remove {
		if err := t.removeEffect(e); err != nil {
			return err
		}
	}
	for _, d := range o.Discard {
		if err := t.discard(d); err != nil {
			return err
		}
	}
	if err := t.applyDeltas(o.Deltas); err != nil {
		return err
	}
	if o.Activate != nil {
		if err := t.activate(o.Activate); err != nil {
			return err
		}
	}
	t.chains = append(t.chains, o.Chain...)
	if err := t.runChains(); err != nil {
		return err
	}
	for _, d := range o.Draws {
		player := t.st.Player(d.PlayerID)
		if _, err := t.draw(player, d.Type, d.Count, true); err != nil {
			return err
		}
	}

	t.res.Messages = append(t.res.Messages, o.Messages...)
	t.res.Penalties = append(t.res.Penalties, o.Penalties...)
	return nil
}

// applyDeltas reports every delta and writes the nonzero ones through the ledger.
func (t *txn) applyDeltas(d deltas) error {
	for _, delta := range d {
		t.res.ScoreChanges = append(t.res.ScoreChanges, delta)
		_, lead, err := t.e.ledger.ApplyScoreChange(t.ctx, t.s, t.st, delta.PlayerID, delta.Points, t.actor)
		if err != nil {
			return err
		}
		if lead != nil {
			t.lead = lead
		}
	}
	return nil
}

// removeEffect deletes an effect and queues a chain for its slot when it was a modifier.
func (t *txn) removeEffect(e *model.ActiveEffect) error {
	removed, err := t.s.Effects.Delete(t.ctx, e.ID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	switch e.EffectType {
	case model.EffectChallengeModify, model.EffectSnapModify, model.EffectDareModify,
		model.EffectSpicyModify, model.EffectVetoModify:
		t.chains = append(t.chains, chainReq{Type: e.EffectType, Owner: e.PlayerID, Target: e.ResolvedTarget()})
	}
	return nil
}

// discard takes one copy of a card out of a hand. When the last copy of a chance card
// leaves, everything it armed for that player goes with it.
func (t *txn) discard(d Discard) error {
	entryID := d.EntryID
	if entryID == 0 {
		entry, err := t.s.Hands.GetByCard(t.ctx, t.st.GameID, d.PlayerID, d.CardID, d.HandType)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		entryID = entry.ID
	}

	if _, err := t.s.Hands.RemoveOne(t.ctx, entryID); err != nil {
		if errors.Is(err, repository.ErrHandEntryNotFound) {
			return nil
		}
		return err
	}
	if d.ToDeck {
		if err := t.s.Decks.Return(t.ctx, t.st.GameID, d.PlayerID, d.CardID); err != nil {
			return err
		}
	}

	if d.HandType != model.HandChance {
		return nil
	}
	held, err := t.s.Hands.CountCard(t.ctx, t.st.GameID, d.PlayerID, d.CardID)
	if err != nil {
		return err
	}
	if held > 0 {
		return nil
	}
	return t.clearCard(d.PlayerID, d.CardID)
}

// clearCard removes every effect and timer a player's chance card created.
func (t *txn) clearCard(playerID, cardID int64) error {
	effects, err := t.s.Effects.ListByCard(t.ctx, t.st.GameID, playerID, cardID)
	if err != nil {
		return err
	}
	for _, e := range effects {
		if err := t.removeEffect(e); err != nil {
			return err
		}
	}

	timers, err := t.s.Timers.ListForCard(t.ctx, t.st.GameID, playerID, cardID)
	if err != nil {
		return err
	}
	for _, tm := range timers {
		if err := t.s.Timers.Delete(t.ctx, tm.ID); err != nil {
			return err
		}
		if tm.IsActive {
			t.cancelled = append(t.cancelled, tm.ID)
		}
	}
	return nil
}

// inUse reports whether a player's chance card already has live effects or timers.
func (t *txn) inUse(playerID, cardID int64) (bool, error) {
	effects, err := t.s.Effects.ListByCard(t.ctx, t.st.GameID, playerID, cardID)
	if err != nil {
		return false, err
	}
	if len(effects) > 0 {
		return true, nil
	}
	timers, err := t.s.Timers.ListForCard(t.ctx, t.st.GameID, playerID, cardID)
	if err != nil {
		return false, err
	}
	return len(timers) > 0, nil
}

// arm inserts an effect unless its slot is taken.
func (t *txn) arm(a Arm, cardID int64) (*model.ActiveEffect, bool, error) {
	return t.s.Effects.InsertIfAbsent(t.ctx, &model.ActiveEffect{
		GameID:         t.st.GameID,
		PlayerID:       a.Owner,
		TargetPlayerID: a.Target,
		CardID:         cardID,
		EffectType:     a.Type,
		EffectValue:    a.Value,
	})
}

// startTimer creates a timer for a card and links the given effects to it.
func (t *txn) startTimer(owner int64, c *model.Card, minutes int, linked []*model.ActiveEffect) (*model.Timer, error) {
	start := t.e.now()
	cardID := c.ID
	timer, err := t.s.Timers.Create(t.ctx, &model.Timer{
		GameID:          t.st.GameID,
		PlayerID:        owner,
		CardID:          &cardID,
		Description:     c.Name,
		DurationMinutes: minutes,
		StartAt:         start,
		EndAt:           start.Add(time.Duration(minutes) * time.Minute),
	})
	if err != nil {
		return nil, err
	}
	for _, e := range linked {
		if err := t.s.Effects.SetTimer(t.ctx, e.ID, timer.ID); err != nil {
			return nil, err
		}
	}
	t.scheduled = append(t.scheduled, timer)
	return timer, nil
}

// activate arms a chance card's effects. Effects whose slot is taken stay queued in
// the hand; a timer starts only when something armed.
func (t *txn) activate(a *Activation) error {
	var armed []*model.ActiveEffect
	for _, arm := range a.Arms {
		e, ok, err := t.arm(arm, a.Card.ID)
		if err != nil {
			return err
		}
		if !ok {
			t.res.Messages = append(t.res.Messages, fmt.Sprintf("%s queued (%s already active)", a.Card.Name, arm.Type))
			continue
		}
		armed = append(armed, e)
		t.res.Messages = append(t.res.Messages, fmt.Sprintf("%s activated (%s)", a.Card.Name, arm.Type))
	}

	if a.TimerMinutes > 0 && len(armed) > 0 {
		if _, err := t.startTimer(a.Owner, a.Card, a.TimerMinutes, armed); err != nil {
			return err
		}
	}
	return nil
}

// runChains arms the next queued modifier for every freed slot.
func (t *txn) runChains() error {
	for len(t.chains) > 0 {
		req := t.chains[0]
		t.chains = t.chains[1:]
		if err := t.chain(req); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) chain(req chainReq) error {
	switch req.Type {
	case model.EffectChallengeModify:
		// The consumed effect's owner chains first, then the other player, both against the same target.
		for _, holder := range []int64{req.Owner, t.st.Opponent(req.Owner).ID} {
			ok, err := t.chainFrom(holder, req.Type, challengeModifierFor(holder, req.Target), req.Target)
			if err != nil || ok {
				return err
			}
		}
		return nil
	case model.EffectSnapModify:
		_, err := t.chainFrom(req.Owner, req.Type, func(c *model.Card) bool { return c.SnapModify }, 0)
		return err
	case model.EffectDareModify:
		_, err := t.chainFrom(req.Owner, req.Type, func(c *model.Card) bool { return c.DareModify }, 0)
		return err
	case model.EffectSpicyModify:
		_, err := t.chainFrom(req.Owner, req.Type, func(c *model.Card) bool { return c.SpicyModify }, 0)
		return err
	case model.EffectVetoModify:
		_, err := t.chainFrom(req.Owner, req.Type, func(c *model.Card) bool { return c.HasVetoModify() }, 0)
		return err
	}
	return nil
}

// challengeModifierFor matches the cards a holder can queue against target: their own
// challenge modifiers, or opponent modifiers when the target is the other player.
func challengeModifierFor(holder, target int64) func(*model.Card) bool {
	if holder == target {
		return func(c *model.Card) bool { return c.ChallengeModify }
	}
	return func(c *model.Card) bool { return c.OpponentChallengeModify }
}

// chainFrom arms the first unused matching chance card in the owner's hand, in the order
// the cards were acquired. A nonzero target restricts the choice to effects resolving to it.
// Returns false when nothing was armed.
func (t *txn) chainFrom(ownerID int64, typ model.EffectType, match func(*model.Card) bool, target int64) (bool, error) {
	entry, c, err := t.unusedChanceCard(ownerID, match, 0)
	if err != nil || entry == nil {
		return false, err
	}

	for _, a := range armsFor(c, t.st.Player(ownerID), t.st.Opponent(ownerID)) {
		if a.Type != typ || (target != 0 && a.ResolvedTarget() != target) {
			continue
		}
		e, ok, err := t.arm(a, c.ID)
		if err != nil || !ok {
			return false, err
		}
		if c.HasTimer() && !c.IsRecurring() {
			if _, err := t.startTimer(ownerID, c, c.TimerMinutes, []*model.ActiveEffect{e}); err != nil {
				return false, err
			}
		}
		t.res.Messages = append(t.res.Messages, fmt.Sprintf("%s is now active (%s)", c.Name, typ))
		return true, nil
	}
	return false, nil
}

// draw moves count cards of one type from a player's deck to the player's hand, weighted
// by the copies left of each card. A forced draw takes what is left; a manual draw from
// an empty deck is rejected.
func (t *txn) draw(p *model.Player, typ model.CardType, count int, forced bool) ([]model.CardSummary, error) {
	var drawn []model.CardSummary
	for i := 0; i < count; i++ {
		entries, err := t.s.Decks.ListAvailable(t.ctx, t.st.GameID, p.ID, []model.CardType{typ})
		if err != nil {
			return nil, err
		}

		total := 0
		for _, e := range entries {
			total += e.Quantity
		}
		if total == 0 {
			if forced {
				t.res.Messages = append(t.res.Messages, fmt.Sprintf("%s has no %s cards left to draw", p.Name, typ))
				break
			}
			return nil, invalid(ErrDeckEmpty, "no %s cards left in your deck", typ)
		}

		roll := t.e.pick(total)
		var chosen *model.DeckEntry
		for _, e := range entries {
			if roll < e.Quantity {
				chosen = e
				break
			}
			roll -= e.Quantity
		}

		ok, err := t.s.Decks.Take(t.ctx, t.st.GameID, p.ID, chosen.CardID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("deck card %d vanished during draw", chosen.CardID)
		}

		c, err := t.card(chosen.CardID)
		if err != nil {
			return nil, err
		}
		entry, err := t.s.Hands.Add(t.ctx, t.st.GameID, p.ID, c.ID, handTypeFor(c.Type))
		if err != nil {
			return nil, err
		}

		summary := model.CardSummary{HandCardID: entry.ID, CardID: c.ID, Name: c.Name, Type: entry.HandType}
		drawn = append(drawn, summary)
		t.res.DrawnCards = append(t.res.DrawnCards, summary)
	}
	return drawn, nil
}

// flush runs the post-commit side effects. Failures are logged and never undo the commit.
func (t *txn) flush(ctx context.Context) {
	for _, id := range t.cancelled {
		if err := t.e.scheduler.Cancel(ctx, id); err != nil {
			t.log.Warn().Err(err).Int64("timer_id", id).Msg("Failed to cancel timer job")
		}
	}
	for _, tm := range t.scheduled {
		if err := t.e.scheduler.Schedule(ctx, tm.ID, tm.EndAt); err != nil {
			t.log.Warn().Err(err).Int64("timer_id", tm.ID).Msg("Failed to schedule timer job")
		}
	}
	if t.lead != nil && t.st != nil && t.st.Leader() != t.leaderBefore && t.st.Leader() != 0 {
		if err := t.e.notifier.LeadChanged(ctx, t.lead); err != nil {
			t.log.Warn().Err(err).Msg("Failed to send lead change notification")
		}
	}
	for _, tm := range t.expired {
		if err := t.e.notifier.TimerExpired(ctx, tm); err != nil {
			t.log.Warn().Err(err).Int64("timer_id", tm.ID).Msg("Failed to send timer notification")
		}
	}
}
