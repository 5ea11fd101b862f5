package engine

import (
	"fmt"

	"duel-game-bot/internal/model"
)

func (t *txn) complete(gameID, playerID, handCardID int64) error {
	player, opp, err := t.begin(gameID, playerID)
	if err != nil {
		return err
	}
	entry, c, err := t.handCard(gameID, playerID, handCardID)
	if err != nil {
		return err
	}

	if entry.HandType == model.HandChance {
		return t.completeChance(player, opp, entry, c)
	}

	if entry.HandType.IsChallenge() {
		blocker, err := t.s.Effects.FindForTarget(t.ctx, gameID, model.EffectBeforeNextChallenge, playerID)
		if err != nil {
			return err
		}
		if blocker != nil {
			source, err := t.card(blocker.CardID)
			if err != nil {
				return err
			}
			v := invalid(ErrBlockedByChance, "complete your chance card first")
			v.Blocking = []string{source.Name}
			return v
		}
	}

	effectType, rule := lookupCompleteRule(entry.HandType)
	in := completeInput{Player: playerID, Opponent: opp.ID, Card: c}

	// Challenge modifiers only fire on cards that pay something.
	if effectType != "" && (effectType != model.EffectChallengeModify || c.Reward > 0) {
		mod, err := t.s.Effects.FindForTarget(t.ctx, gameID, effectType, playerID)
		if err != nil {
			return err
		}
		if mod != nil {
			modCard, err := t.card(mod.CardID)
			if err != nil {
				return err
			}
			in.Modifier = mod
			in.ModifierCard = modCard
		}
	}

	o := rule(in)
	o.Discard = append(o.Discard, Discard{
		EntryID:  entry.ID,
		PlayerID: playerID,
		CardID:   c.ID,
		HandType: entry.HandType,
	})
	o.Messages = append(o.Messages, fmt.Sprintf("%s completed %s", player.Name, c.Name))
	return t.apply(&o)
}

// completeChance activates a chance card, or resolves it when it is already in play:
// its effects and timers are removed and the copy is discarded.
func (t *txn) completeChance(player, opp *model.Player, entry *model.HandEntry, c *model.Card) error {
	used, err := t.inUse(player.ID, c.ID)
	if err != nil {
		return err
	}

	if !used {
		o := chanceOutcome(chanceInput{Player: player, Opponent: opp, Entry: entry, Card: c})
		return t.apply(&o)
	}

	if err := t.clearCard(player.ID, c.ID); err != nil {
		return err
	}
	o := Outcome{
		Discard:  []Discard{{EntryID: entry.ID, PlayerID: player.ID, CardID: c.ID, HandType: entry.HandType}},
		Messages: []string{fmt.Sprintf("%s resolved", c.Name)},
	}
	return t.apply(&o)
}
