package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"duel-game-bot/internal/model"
)

var (
	her = &model.Player{ID: 1, Name: "Ann", Gender: model.GenderFemale}
	him = &model.Player{ID: 2, Name: "Bob", Gender: model.GenderMale}
)

// TestChallengePayoutProperty checks every challenge modifier over arbitrary positive payouts.
func TestChallengePayoutProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.Int64Range(1, 1_000_000).Draw(t, "payout")

		self, opp := challengePayout(model.ScoreModifyHalf, p)
		want := p
		if p > 1 {
			want = p / 2
		}
		if self != want || opp != 0 {
			t.Fatalf("half(%d) = %d/%d, want %d/0", p, self, opp, want)
		}

		if self, opp := challengePayout(model.ScoreModifyZero, p); self != 0 || opp != 0 {
			t.Fatalf("zero(%d) = %d/%d", p, self, opp)
		}
		if self, opp := challengePayout(model.ScoreModifyOpponentExtraPoint, p); self != p+1 || opp != 0 {
			t.Fatalf("extra point(%d) = %d/%d", p, self, opp)
		}
		if self, opp := challengePayout(model.ScoreModifyOpponentDouble, p); self != 2*p || opp != 0 {
			t.Fatalf("opponent double(%d) = %d/%d", p, self, opp)
		}
		if self, opp := challengePayout(model.ScoreModifyChallengeRewardOpponent, p); self != 0 || opp != p {
			t.Fatalf("reward opponent(%d) = %d/%d", p, self, opp)
		}
		if self, opp := challengePayout(model.ScoreModifyNone, p); self != p || opp != 0 {
			t.Fatalf("none(%d) = %d/%d", p, self, opp)
		}
	})
}

// TestDeltasMergeProperty checks merged deltas keep first-seen order and sum per player.
func TestDeltasMergeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		var d deltas
		sums := map[int64]int64{}
		var order []int64
		for i := 0; i < n; i++ {
			player := rapid.Int64Range(1, 3).Draw(t, "player")
			points := rapid.Int64Range(-10, 10).Draw(t, "points")
			if _, seen := sums[player]; !seen {
				order = append(order, player)
			}
			sums[player] += points
			d.add(player, points)
		}

		if len(d) != len(order) {
			t.Fatalf("got %d entries, want %d", len(d), len(order))
		}
		for i, entry := range d {
			if entry.PlayerID != order[i] || entry.Points != sums[entry.PlayerID] {
				t.Fatalf("entry %d = %+v, want player %d with %d", i, entry, order[i], sums[order[i]])
			}
		}
	})
}

func TestChallengeRule_NoModifier(t *testing.T) {
	o := challengeRule(completeInput{Player: 1, Opponent: 2, Card: &model.Card{Reward: 3}})

	assert.Equal(t, deltas{{PlayerID: 1, Points: 3}}, o.Deltas)
	assert.Empty(t, o.Remove)
	assert.Empty(t, o.Discard)
}

func TestChallengeRule_HalfConsumesModifierAndSourceCard(t *testing.T) {
	mod := &model.ActiveEffect{ID: 9, PlayerID: 1, CardID: 40, EffectType: model.EffectChallengeModify, EffectValue: string(model.ScoreModifyHalf)}
	o := challengeRule(completeInput{
		Player: 1, Opponent: 2,
		Card:         &model.Card{Reward: 3},
		Modifier:     mod,
		ModifierCard: &model.Card{ID: 40, Name: "Half Measures"},
	})

	assert.Equal(t, deltas{{PlayerID: 1, Points: 1}}, o.Deltas)
	require.Len(t, o.Remove, 1)
	assert.Equal(t, int64(9), o.Remove[0].ID)
	require.Len(t, o.Discard, 1)
	assert.Equal(t, Discard{PlayerID: 1, CardID: 40, HandType: model.HandChance}, o.Discard[0])
}

func TestChallengeRule_TimedSourceStaysInHand(t *testing.T) {
	mod := &model.ActiveEffect{ID: 9, PlayerID: 2, CardID: 41, EffectType: model.EffectChallengeModify, EffectValue: string(model.ScoreModifyZero)}
	o := challengeRule(completeInput{
		Player: 1, Opponent: 2,
		Card:         &model.Card{Reward: 5},
		Modifier:     mod,
		ModifierCard: &model.Card{ID: 41, TimerMinutes: 30},
	})

	assert.Equal(t, deltas{{PlayerID: 1, Points: 0}}, o.Deltas)
	assert.Len(t, o.Remove, 1)
	assert.Empty(t, o.Discard)
}

func TestChallengeRule_RewardToOpponent(t *testing.T) {
	mod := &model.ActiveEffect{ID: 3, PlayerID: 2, CardID: 42, EffectValue: string(model.ScoreModifyChallengeRewardOpponent)}
	o := challengeRule(completeInput{Player: 1, Opponent: 2, Card: &model.Card{Reward: 4}, Modifier: mod, ModifierCard: &model.Card{ID: 42}})

	assert.Equal(t, deltas{{PlayerID: 1, Points: 0}, {PlayerID: 2, Points: 4}}, o.Deltas)
}

func TestTypeModifyRule(t *testing.T) {
	tests := []struct {
		name  string
		owner int64
		value string
		want  deltas
	}{
		{"double", 1, model.TypeModifyDouble, deltas{{PlayerID: 1, Points: 4}}},
		{"own modify adds a point", 1, model.TypeModifyModify, deltas{{PlayerID: 1, Points: 3}}},
		{"opponent modify takes the reward", 2, model.TypeModifyModify, deltas{{PlayerID: 1, Points: 0}, {PlayerID: 2, Points: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := &model.ActiveEffect{ID: 5, PlayerID: tt.owner, CardID: 50, EffectType: model.EffectSnapModify, EffectValue: tt.value}
			o := typeModifyRule(completeInput{Player: 1, Opponent: 2, Card: &model.Card{Reward: 2}, Modifier: mod, ModifierCard: &model.Card{ID: 50}})
			assert.Equal(t, tt.want, o.Deltas)
			assert.Len(t, o.Remove, 1)
		})
	}
}

func TestLookupCompleteRule(t *testing.T) {
	effect, rule := lookupCompleteRule(model.HandAcceptedServe)
	assert.Equal(t, model.EffectChallengeModify, effect)
	assert.NotNil(t, rule)

	effect, rule = lookupCompleteRule(model.HandDare)
	assert.Equal(t, model.EffectDareModify, effect)
	assert.NotNil(t, rule)

	effect, _ = lookupCompleteRule(model.HandChance)
	assert.Empty(t, effect)
}

func snapEntry() *model.HandEntry {
	return &model.HandEntry{ID: 77, PlayerID: her.ID, CardID: 10, HandType: model.HandSnap, Quantity: 1}
}

func TestVetoOutcome_SnapFixedPenalty(t *testing.T) {
	o := vetoOutcome(vetoInput{
		Player: her, Opponent: him, Entry: snapEntry(),
		Card:         &model.Card{ID: 10, Type: model.CardSnap},
		VetoModify:   model.VetoModifyNone,
		FixedPenalty: 3,
	})

	assert.Equal(t, deltas{{PlayerID: her.ID, Points: -3}}, o.Deltas)
	require.Len(t, o.Discard, 1)
	assert.False(t, o.Discard[0].ToDeck)
}

func TestVetoOutcome_DoubleVetoModify(t *testing.T) {
	o := vetoOutcome(vetoInput{
		Player: her, Opponent: him, Entry: snapEntry(),
		Card:         &model.Card{ID: 10, Type: model.CardSnap},
		VetoModify:   model.VetoModifyDouble,
		FixedPenalty: 3,
	})

	assert.Equal(t, deltas{{PlayerID: her.ID, Points: -6}}, o.Deltas)
}

func TestVetoOutcome_SkipSuppressesEverything(t *testing.T) {
	o := vetoOutcome(vetoInput{
		Player: her, Opponent: him, Entry: snapEntry(),
		Card:         &model.Card{ID: 10, Type: model.CardSnap, VetoSubtract: 2, VetoDrawChance: 1},
		VetoModify:   model.VetoModifySkip,
		FixedPenalty: 3,
	})

	assert.Empty(t, o.Deltas)
	assert.Empty(t, o.Draws)
	assert.Len(t, o.Discard, 1)
}

func TestVetoOutcome_AllPenaltiesFireTogether(t *testing.T) {
	entry := &model.HandEntry{ID: 5, PlayerID: him.ID, CardID: 20, HandType: model.HandSpicy}
	o := vetoOutcome(vetoInput{
		Player: him, Opponent: her, Entry: entry,
		Card: &model.Card{
			ID: 20, Type: model.CardSpicy,
			VetoSubtract: 1, VetoSteal: 2,
			VetoDrawChance: 1, VetoDrawSnapDare: 1, VetoDrawSpicy: 1,
		},
		VetoModify:   model.VetoModifyOpponentDouble,
		FixedPenalty: 3,
	})

	assert.Equal(t, deltas{{PlayerID: him.ID, Points: -6}, {PlayerID: her.ID, Points: 4}}, o.Deltas)
	assert.Equal(t, []Draw{
		{PlayerID: him.ID, Type: model.CardChance, Count: 2},
		{PlayerID: him.ID, Type: model.CardDare, Count: 2},
		{PlayerID: him.ID, Type: model.CardSpicy, Count: 2},
	}, o.Draws)
	require.Len(t, o.Discard, 1)
	assert.True(t, o.Discard[0].ToDeck)
}

func TestVetoOutcome_TypeDoubleStacksWithVetoDouble(t *testing.T) {
	o := vetoOutcome(vetoInput{
		Player: her, Opponent: him, Entry: snapEntry(),
		Card:         &model.Card{ID: 10, Type: model.CardSnap},
		VetoModify:   model.VetoModifyDouble,
		TypeDouble:   true,
		FixedPenalty: 3,
	})

	assert.Equal(t, deltas{{PlayerID: her.ID, Points: -12}}, o.Deltas)
}

func TestWinLossOutcome(t *testing.T) {
	c := &model.Card{ID: 30, Reward: 4, VetoSubtract: 1, VetoSteal: 2, VetoDrawSnapDare: 1, WinLoss: true}
	entry := &model.HandEntry{ID: 8, PlayerID: her.ID, CardID: 30, HandType: model.HandSpicy}

	o := winLossOutcome(winLossInput{Winner: him, Loser: her, Entry: entry, Card: c})

	assert.Equal(t, deltas{{PlayerID: him.ID, Points: 6}, {PlayerID: her.ID, Points: -3}}, o.Deltas)
	assert.Equal(t, []Draw{{PlayerID: her.ID, Type: model.CardSnap, Count: 1}}, o.Draws)
	require.Len(t, o.Discard, 1)
	assert.Equal(t, her.ID, o.Discard[0].PlayerID)
}

func TestChanceOutcome_ImmediateOnlyIsDiscarded(t *testing.T) {
	c := &model.Card{ID: 60, Name: "Windfall", Type: model.CardChance, ScoreAdd: 2, ScoreSteal: 1, DrawSpicy: 1}
	entry := &model.HandEntry{ID: 3, PlayerID: her.ID, CardID: 60, HandType: model.HandChance}

	o := chanceOutcome(chanceInput{Player: her, Opponent: him, Entry: entry, Card: c})

	assert.Equal(t, deltas{{PlayerID: her.ID, Points: 3}, {PlayerID: him.ID, Points: -1}}, o.Deltas)
	assert.Nil(t, o.Activate)
	require.Len(t, o.Discard, 1)
	assert.Equal(t, int64(3), o.Discard[0].EntryID)
	assert.Equal(t, []Draw{{PlayerID: her.ID, Type: model.CardSpicy, Count: 1}}, o.Draws)
}

func TestChanceOutcome_RecurringArmsTimer(t *testing.T) {
	c := &model.Card{ID: 61, Name: "Clock Siphon", Type: model.CardChance, RepeatCount: 10, ScoreSubtract: 1}
	entry := &model.HandEntry{ID: 4, PlayerID: him.ID, CardID: 61, HandType: model.HandChance}

	o := chanceOutcome(chanceInput{Player: him, Opponent: her, Entry: entry, Card: c})

	assert.Empty(t, o.Deltas, "the per-tick penalty must not fire on activation")
	assert.Empty(t, o.Discard)
	require.NotNil(t, o.Activate)
	assert.Equal(t, 10, o.Activate.TimerMinutes)
	require.Len(t, o.Activate.Arms, 1)
	assert.Equal(t, model.EffectRecurringTimer, o.Activate.Arms[0].Type)
	assert.Equal(t, "1", o.Activate.Arms[0].Value)
}

func TestArmsFor_TargetsByEligibility(t *testing.T) {
	c := &model.Card{
		ChallengeModify: true, OpponentChallengeModify: true, ScoreModify: model.ScoreModifyHalf,
		SnapModify: true, DareModify: true, DoubleIt: true,
		VetoModify: model.VetoModifyOpponentDouble,
	}

	arms := armsFor(c, him, her)
	byType := map[model.EffectType][]int64{}
	for _, a := range arms {
		byType[a.Type] = append(byType[a.Type], a.ResolvedTarget())
	}

	assert.Equal(t, []int64{him.ID, her.ID}, byType[model.EffectChallengeModify])
	assert.Equal(t, []int64{her.ID}, byType[model.EffectVetoModify])
	assert.Equal(t, []int64{her.ID}, byType[model.EffectSnapModify], "a male owner's snap modifier targets her")
	assert.Equal(t, []int64{him.ID}, byType[model.EffectDareModify])
	for _, a := range arms {
		if a.Type == model.EffectSnapModify {
			assert.Equal(t, model.TypeModifyDouble, a.Value)
		}
	}
}

func TestArmsFor_PlainTimerEffect(t *testing.T) {
	arms := armsFor(&model.Card{TimerMinutes: 15, BeforeNextChallenge: true}, her, him)

	require.Len(t, arms, 2)
	assert.Equal(t, model.EffectBeforeNextChallenge, arms[0].Type)
	assert.Equal(t, model.EffectTimer, arms[1].Type)
}

func TestEligibility(t *testing.T) {
	assert.True(t, eligible(model.GenderFemale, model.CardSnap))
	assert.False(t, eligible(model.GenderMale, model.CardSnap))
	assert.True(t, eligible(model.GenderMale, model.CardDare))
	assert.False(t, eligible(model.GenderFemale, model.CardDare))
	assert.True(t, eligible(model.GenderMale, model.CardSpicy))
	assert.Equal(t, model.CardSnap, snapDareFor(model.GenderFemale))
	assert.Equal(t, model.CardDare, snapDareFor(model.GenderMale))
}

func TestTickPenalty(t *testing.T) {
	assert.Equal(t, int64(1), tickPenalty("1"))
	assert.Equal(t, int64(0), tickPenalty(""))
	assert.Equal(t, int64(0), tickPenalty("-4"))
}

func TestValidationError(t *testing.T) {
	v := invalid(ErrBlockedByChance, "complete your chance card first")
	v.Blocking = []string{"Cold Feet"}

	assert.ErrorIs(t, v, ErrBlockedByChance)
	assert.True(t, IsValidation(v))
	assert.Equal(t, "complete your chance card first: Cold Feet", v.Error())
	assert.False(t, IsValidation(assert.AnError))
}
