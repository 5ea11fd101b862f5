package engine

import (
	"fmt"
	"strconv"

	"duel-game-bot/internal/model"
)

// challengePayout splits a challenge reward p between the completing player and the opponent.
func challengePayout(mod model.ScoreModify, p int64) (self, opponent int64) {
	switch mod {
	case model.ScoreModifyHalf:
		if p > 1 {
			return p / 2, 0
		}
		return p, 0
	case model.ScoreModifyZero:
		return 0, 0
	case model.ScoreModifyOpponentDouble:
		return p * 2, 0
	case model.ScoreModifyOpponentExtraPoint:
		return p + 1, 0
	case model.ScoreModifyChallengeRewardOpponent:
		return 0, p
	}
	return p, 0
}

// modifierFor maps a contextual hand type to the single-slot modifier it consumes on completion.
var modifierFor = map[model.HandType]model.EffectType{
	model.HandServe:         model.EffectChallengeModify,
	model.HandAcceptedServe: model.EffectChallengeModify,
	model.HandSnap:          model.EffectSnapModify,
	model.HandDare:          model.EffectDareModify,
	model.HandSpicy:         model.EffectSpicyModify,
}

// completeInput is everything a completion rule may look at.
type completeInput struct {
	Player       int64
	Opponent     int64
	Card         *model.Card
	Modifier     *model.ActiveEffect // live modifier resolving to Player, or nil
	ModifierCard *model.Card
}

type completeRule func(in completeInput) Outcome

type ruleKey struct {
	hand   model.HandType
	effect model.EffectType
}

// completeRules dispatches a completion by (contextual card type, modifier type).
var completeRules = map[ruleKey]completeRule{
	{model.HandServe, model.EffectChallengeModify}:         challengeRule,
	{model.HandAcceptedServe, model.EffectChallengeModify}: challengeRule,
	{model.HandSnap, model.EffectSnapModify}:               typeModifyRule,
	{model.HandDare, model.EffectDareModify}:               typeModifyRule,
	{model.HandSpicy, model.EffectSpicyModify}:             typeModifyRule,
}

func lookupCompleteRule(hand model.HandType) (model.EffectType, completeRule) {
	effect, ok := modifierFor[hand]
	if !ok {
		return "", rewardRule
	}
	return effect, completeRules[ruleKey{hand, effect}]
}

// rewardRule pays the card's reward with no modifier involved.
func rewardRule(in completeInput) Outcome {
	var o Outcome
	o.Deltas.add(in.Player, in.Card.Reward)
	return o
}

func challengeRule(in completeInput) Outcome {
	var o Outcome
	p := in.Card.Reward
	if p <= 0 {
		o.Deltas.add(in.Player, 0)
		return o
	}

	mod := model.ScoreModifyNone
	if in.Modifier != nil {
		mod = model.ScoreModify(in.Modifier.EffectValue)
	}

	self, opp := challengePayout(mod, p)
	o.Deltas.add(in.Player, self)
	if opp != 0 {
		o.Deltas.add(in.Opponent, opp)
	}

	if in.Modifier != nil {
		o.consume(in.Modifier, in.ModifierCard)
		o.Messages = append(o.Messages, fmt.Sprintf("%s applied (%s)", cardName(in.ModifierCard), mod))
	}
	return o
}

// typeModifyRule handles snap, dare and spicy completions. A double modifier doubles the
// reward; a plain modifier adds a point when its owner completes the card and takes the
// reward for its owner when it targets the opponent.
func typeModifyRule(in completeInput) Outcome {
	var o Outcome
	p := in.Card.Reward

	if in.Modifier == nil {
		o.Deltas.add(in.Player, p)
		return o
	}

	switch in.Modifier.EffectValue {
	case model.TypeModifyDouble:
		o.Deltas.add(in.Player, p*2)
	default:
		if in.Modifier.PlayerID == in.Player {
			o.Deltas.add(in.Player, p+1)
		} else {
			o.Deltas.add(in.Player, 0)
			o.Deltas.add(in.Modifier.PlayerID, p)
		}
	}

	o.consume(in.Modifier, in.ModifierCard)
	o.Messages = append(o.Messages, fmt.Sprintf("%s applied (%s)", cardName(in.ModifierCard), in.Modifier.EffectValue))
	return o
}

// snapDareFor is the snap-or-dare card type a player of the given gender may hold.
func snapDareFor(g model.Gender) model.CardType {
	if g == model.GenderFemale {
		return model.CardSnap
	}
	return model.CardDare
}

// eligible reports whether a player may draw or be targeted by a card type.
func eligible(g model.Gender, t model.CardType) bool {
	switch t {
	case model.CardSnap:
		return g == model.GenderFemale
	case model.CardDare:
		return g == model.GenderMale
	}
	return true
}

func handTypeFor(t model.CardType) model.HandType {
	switch t {
	case model.CardServe:
		return model.HandServe
	case model.CardSnap:
		return model.HandSnap
	case model.CardDare:
		return model.HandDare
	case model.CardSpicy:
		return model.HandSpicy
	}
	return model.HandChance
}

// penaltyDraws queues forced draws for a player, scaled by mult.
func penaltyDraws(o *Outcome, p *model.Player, chance, snapDare, spicy, mult int) {
	add := func(t model.CardType, n int) {
		if n <= 0 {
			return
		}
		o.Draws = append(o.Draws, Draw{PlayerID: p.ID, Type: t, Count: n * mult})
		o.Penalties = append(o.Penalties, fmt.Sprintf("%s draws %d %s", p.Name, n*mult, t))
	}
	add(model.CardChance, chance)
	add(snapDareFor(p.Gender), snapDare)
	add(model.CardSpicy, spicy)
}

type vetoInput struct {
	Player       *model.Player
	Opponent     *model.Player
	Entry        *model.HandEntry
	Card         *model.Card
	VetoModify   model.VetoModify
	TypeDouble   bool // a live double snap/dare modifier targets the player
	FixedPenalty int64
}

// vetoOutcome applies the card's veto penalties to the vetoing player.
func vetoOutcome(in vetoInput) Outcome {
	var o Outcome
	o.Discard = append(o.Discard, Discard{
		EntryID:  in.Entry.ID,
		PlayerID: in.Player.ID,
		CardID:   in.Card.ID,
		HandType: in.Entry.HandType,
		ToDeck:   in.Card.Type == model.CardChance || in.Card.Type == model.CardSpicy,
	})

	if in.VetoModify == model.VetoModifySkip {
		o.Messages = append(o.Messages, "veto penalties skipped")
		return o
	}

	mult := int64(1)
	if in.VetoModify == model.VetoModifyDouble || in.VetoModify == model.VetoModifyOpponentDouble {
		mult = 2
	}

	if in.Entry.HandType == model.HandSnap || in.Entry.HandType == model.HandDare {
		fixed := in.FixedPenalty * mult
		if in.TypeDouble {
			fixed *= 2
		}
		if fixed > 0 {
			o.Deltas.add(in.Player.ID, -fixed)
			o.Penalties = append(o.Penalties, fmt.Sprintf("%s loses %d points", in.Player.Name, fixed))
		}
	}

	if n := in.Card.VetoSubtract * mult; n > 0 {
		o.Deltas.add(in.Player.ID, -n)
		o.Penalties = append(o.Penalties, fmt.Sprintf("%s loses %d points", in.Player.Name, n))
	}
	if n := in.Card.VetoSteal * mult; n > 0 {
		o.Deltas.add(in.Player.ID, -n)
		o.Deltas.add(in.Opponent.ID, n)
		o.Penalties = append(o.Penalties, fmt.Sprintf("%s steals %d points from %s", in.Opponent.Name, n, in.Player.Name))
	}

	penaltyDraws(&o, in.Player, in.Card.VetoDrawChance, in.Card.VetoDrawSnapDare, in.Card.VetoDrawSpicy, int(mult))
	return o
}

type winLossInput struct {
	Winner *model.Player
	Loser  *model.Player
	Entry  *model.HandEntry
	Card   *model.Card
}

// winLossOutcome pays the winner the reward and hands the loser the veto penalties.
// No modifiers are consulted.
func winLossOutcome(in winLossInput) Outcome {
	var o Outcome
	o.Discard = append(o.Discard, Discard{
		EntryID:  in.Entry.ID,
		PlayerID: in.Entry.PlayerID,
		CardID:   in.Card.ID,
		HandType: in.Entry.HandType,
	})

	if in.Card.Reward != 0 {
		o.Deltas.add(in.Winner.ID, in.Card.Reward)
	}
	if n := in.Card.VetoSubtract; n > 0 {
		o.Deltas.add(in.Loser.ID, -n)
		o.Penalties = append(o.Penalties, fmt.Sprintf("%s loses %d points", in.Loser.Name, n))
	}
	if n := in.Card.VetoSteal; n > 0 {
		o.Deltas.add(in.Loser.ID, -n)
		o.Deltas.add(in.Winner.ID, n)
		o.Penalties = append(o.Penalties, fmt.Sprintf("%s steals %d points from %s", in.Winner.Name, n, in.Loser.Name))
	}

	penaltyDraws(&o, in.Loser, in.Card.VetoDrawChance, in.Card.VetoDrawSnapDare, in.Card.VetoDrawSpicy, 1)
	return o
}

// armsFor lists every effect a chance card arms when its owner activates it.
func armsFor(c *model.Card, owner, opponent *model.Player) []Arm {
	oppID := opponent.ID
	self := func(t model.EffectType, v string) Arm {
		return Arm{Type: t, Owner: owner.ID, Value: v}
	}
	other := func(t model.EffectType, v string) Arm {
		return Arm{Type: t, Owner: owner.ID, Target: &oppID, Value: v}
	}
	// towards picks the owner if eligible for the card type, otherwise the opponent.
	towards := func(t model.EffectType, ct model.CardType, v string) Arm {
		if eligible(owner.Gender, ct) {
			return self(t, v)
		}
		return other(t, v)
	}

	var arms []Arm
	if c.BeforeNextChallenge {
		arms = append(arms, self(model.EffectBeforeNextChallenge, ""))
	}
	if c.ChallengeModify {
		arms = append(arms, self(model.EffectChallengeModify, string(c.ScoreModify)))
	}
	if c.OpponentChallengeModify {
		arms = append(arms, other(model.EffectChallengeModify, string(c.ScoreModify)))
	}
	if c.HasVetoModify() {
		if c.VetoModify == model.VetoModifyOpponentDouble {
			arms = append(arms, other(model.EffectVetoModify, string(c.VetoModify)))
		} else {
			arms = append(arms, self(model.EffectVetoModify, string(c.VetoModify)))
		}
	}
	if c.SnapModify {
		arms = append(arms, towards(model.EffectSnapModify, model.CardSnap, c.TypeModifyValue()))
	}
	if c.DareModify {
		arms = append(arms, towards(model.EffectDareModify, model.CardDare, c.TypeModifyValue()))
	}
	if c.SpicyModify {
		arms = append(arms, self(model.EffectSpicyModify, c.TypeModifyValue()))
	}
	if c.IsRecurring() {
		arms = append(arms, self(model.EffectRecurringTimer, strconv.FormatInt(c.ScoreSubtract, 10)))
	} else if c.HasTimer() {
		arms = append(arms, self(model.EffectTimer, ""))
	}
	return arms
}

// timerMinutesFor is the timer length a chance card starts when one of its effects arms.
func timerMinutesFor(c *model.Card) int {
	if c.IsRecurring() {
		return c.RepeatCount
	}
	return c.TimerMinutes
}

type chanceInput struct {
	Player   *model.Player
	Opponent *model.Player
	Entry    *model.HandEntry
	Card     *model.Card
}

// chanceOutcome activates a chance card: immediate score changes and draws fire now,
// persistent effects are requested for arming. A card with nothing persistent is discarded.
func chanceOutcome(in chanceInput) Outcome {
	var o Outcome
	c := in.Card

	if c.ScoreAdd > 0 {
		o.Deltas.add(in.Player.ID, c.ScoreAdd)
	}
	if c.ScoreSubtract > 0 && !c.IsRecurring() {
		o.Deltas.add(in.Player.ID, -c.ScoreSubtract)
	}
	if c.ScoreSteal > 0 {
		o.Deltas.add(in.Player.ID, c.ScoreSteal)
		o.Deltas.add(in.Opponent.ID, -c.ScoreSteal)
	}
	penaltyDraws(&o, in.Player, c.DrawChance, c.DrawSnapDare, c.DrawSpicy, 1)

	if !c.HasPersistentEffect() {
		o.Discard = append(o.Discard, Discard{
			EntryID:  in.Entry.ID,
			PlayerID: in.Player.ID,
			CardID:   c.ID,
			HandType: in.Entry.HandType,
		})
		o.Messages = append(o.Messages, fmt.Sprintf("%s played", c.Name))
		return o
	}

	o.Activate = &Activation{
		Card:         c,
		Owner:        in.Player.ID,
		Arms:         armsFor(c, in.Player, in.Opponent),
		TimerMinutes: timerMinutesFor(c),
	}
	return o
}

// tickPenalty parses the per-tick penalty stored on a recurring effect.
func tickPenalty(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func cardName(c *model.Card) string {
	if c == nil {
		return "modifier"
	}
	return c.Name
}
