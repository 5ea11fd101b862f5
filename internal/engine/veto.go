package engine

import (
	"fmt"

	"duel-game-bot/internal/model"
)

// vetoDoublers are the modifiers that can double the fixed veto penalty of a hand type.
var vetoDoublers = map[model.HandType]model.EffectType{
	model.HandSnap: model.EffectSnapModify,
	model.HandDare: model.EffectDareModify,
}

func (t *txn) veto(gameID, playerID, handCardID int64) error {
	player, opp, err := t.begin(gameID, playerID)
	if err != nil {
		return err
	}
	entry, c, err := t.handCard(gameID, playerID, handCardID)
	if err != nil {
		return err
	}

	var pre Outcome

	vm, err := t.resolveVetoModify(&pre, player, opp, entry.ID)
	if err != nil {
		return err
	}

	typeDouble := false
	if vm != model.VetoModifySkip {
		if effectType, ok := vetoDoublers[entry.HandType]; ok {
			mod, err := t.s.Effects.FindForTarget(t.ctx, gameID, effectType, playerID)
			if err != nil {
				return err
			}
			if mod != nil && mod.EffectValue == model.TypeModifyDouble {
				source, err := t.card(mod.CardID)
				if err != nil {
					return err
				}
				typeDouble = true
				pre.consume(mod, source)
			}
		}
	}

	o := vetoOutcome(vetoInput{
		Player:       player,
		Opponent:     opp,
		Entry:        entry,
		Card:         c,
		VetoModify:   vm,
		TypeDouble:   typeDouble,
		FixedPenalty: t.e.penalty,
	})
	o.Remove = append(pre.Remove, o.Remove...)
	o.Discard = append(pre.Discard, o.Discard...)
	o.Messages = append(pre.Messages, o.Messages...)
	o.Messages = append(o.Messages, fmt.Sprintf("%s vetoed %s", player.Name, c.Name))
	o.Chain = append(o.Chain, chainReq{Type: model.EffectVetoModify, Owner: playerID, Target: playerID})
	return t.apply(&o)
}

// resolveVetoModify finds the veto modifier for this veto. A live effect targeting the
// player is consumed. Otherwise an unused veto card is used up on the spot: the player's
// own double or skip card, else an opponent_double card the opponent holds.
func (t *txn) resolveVetoModify(o *Outcome, player, opp *model.Player, vetoedEntryID int64) (model.VetoModify, error) {
	live, err := t.s.Effects.FindForTarget(t.ctx, t.st.GameID, model.EffectVetoModify, player.ID)
	if err != nil {
		return model.VetoModifyNone, err
	}
	if live != nil {
		source, err := t.card(live.CardID)
		if err != nil {
			return model.VetoModifyNone, err
		}
		o.consume(live, source)
		o.Messages = append(o.Messages, fmt.Sprintf("%s applied (%s)", source.Name, live.EffectValue))
		return model.VetoModify(live.EffectValue), nil
	}

	own := func(c *model.Card) bool {
		return c.VetoModify == model.VetoModifyDouble || c.VetoModify == model.VetoModifySkip
	}
	theirs := func(c *model.Card) bool {
		return c.VetoModify == model.VetoModifyOpponentDouble
	}

	for _, holder := range []struct {
		p     *model.Player
		match func(*model.Card) bool
	}{{player, own}, {opp, theirs}} {
		entry, c, err := t.unusedChanceCard(holder.p.ID, holder.match, vetoedEntryID)
		if err != nil {
			return model.VetoModifyNone, err
		}
		if entry == nil {
			continue
		}
		o.Discard = append(o.Discard, Discard{EntryID: entry.ID, PlayerID: holder.p.ID, CardID: c.ID, HandType: model.HandChance})
		o.Messages = append(o.Messages, fmt.Sprintf("%s used instantly (%s)", c.Name, c.VetoModify))
		return c.VetoModify, nil
	}
	return model.VetoModifyNone, nil
}

// unusedChanceCard returns the first chance card in a player's hand that matches and
// has nothing in play, skipping the excluded entry. Returns nils when there is none.
func (t *txn) unusedChanceCard(playerID int64, match func(*model.Card) bool, exclude int64) (*model.HandEntry, *model.Card, error) {
	entries, err := t.s.Hands.ListByType(t.ctx, t.st.GameID, playerID, model.HandChance)
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range entries {
		if entry.ID == exclude {
			continue
		}
		c, err := t.card(entry.CardID)
		if err != nil {
			return nil, nil, err
		}
		if !match(c) {
			continue
		}
		used, err := t.inUse(playerID, c.ID)
		if err != nil {
			return nil, nil, err
		}
		if !used {
			return entry, c, nil
		}
	}
	return nil, nil, nil
}
