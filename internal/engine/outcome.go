package engine

import (
	"duel-game-bot/internal/model"
)

// Result is what an engine operation reports back to the caller.
type Result struct {
	ScoreChanges []model.ScoreDelta
	DrawnCards   []model.CardSummary
	Messages     []string
	Penalties    []string
}

// deltas is an ordered list of score changes with at most one entry per player.
type deltas []model.ScoreDelta

// add credits points to a player, merging with the player's existing entry.
func (d *deltas) add(playerID, points int64) {
	for i := range *d {
		if (*d)[i].PlayerID == playerID {
			(*d)[i].Points += points
			return
		}
	}
	*d = append(*d, model.ScoreDelta{PlayerID: playerID, Points: points})
}

// Arm asks for one effect to be armed if its slot is free.
type Arm struct {
	Type   model.EffectType
	Owner  int64
	Target *int64 // nil means the owner
	Value  string
}

// ResolvedTarget is the player the effect would apply to.
func (a Arm) ResolvedTarget() int64 {
	if a.Target != nil {
		return *a.Target
	}
	return a.Owner
}

// Activation arms the effects of a chance card.
type Activation struct {
	Card         *model.Card
	Owner        int64
	Arms         []Arm
	TimerMinutes int
}

// Discard takes one copy of a card out of a hand. EntryID is used when known,
// otherwise the entry is looked up by player, card and hand type.
type Discard struct {
	EntryID  int64
	PlayerID int64
	CardID   int64
	HandType model.HandType
	ToDeck   bool
}

// Draw moves cards of one type from a player's deck into the player's hand.
type Draw struct {
	PlayerID int64
	Type     model.CardType
	Count    int
}

// chainReq asks for the next queued modifier of a type to be armed.
// Challenge modifiers chain by target, every other type by owner.
type chainReq struct {
	Type   model.EffectType
	Owner  int64
	Target int64
}

// Outcome is the tagged result of evaluating a rule. Nothing in it has been written yet;
// the unit of work applies it in field order: Remove, Discard, Deltas, Activate, Chain, Draws.
type Outcome struct {
	Remove    []*model.ActiveEffect
	Discard   []Discard
	Deltas    deltas
	Activate  *Activation
	Chain     []chainReq
	Draws     []Draw
	Messages  []string
	Penalties []string
}

// consume removes a used modifier. Its source card leaves the owner's hand too,
// unless the card is timer based, in which case the timer discards it.
func (o *Outcome) consume(e *model.ActiveEffect, source *model.Card) {
	o.Remove = append(o.Remove, e)
	if source == nil || source.HasTimer() || source.IsRecurring() {
		return
	}
	o.Discard = append(o.Discard, Discard{PlayerID: e.PlayerID, CardID: e.CardID, HandType: model.HandChance})
}
