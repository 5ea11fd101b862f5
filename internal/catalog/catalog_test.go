package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/testdb"
	"duel-game-bot/internal/repository"
)

func TestCatalog_IDsMatchKeys(t *testing.T) {
	seen := map[string]bool{}
	for id, e := range Cards {
		assert.Equal(t, id, e.Card.ID)
		assert.NotEmpty(t, e.Card.Name)
		assert.False(t, seen[e.Card.Name], "duplicate card name %q", e.Card.Name)
		seen[e.Card.Name] = true
	}

	all := All()
	require.Len(t, all, len(Cards))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Card.ID, all[i].Card.ID)
	}
}

func TestCatalog_ClockSiphonIsRecurring(t *testing.T) {
	e, ok := Get(ClockSiphon)
	require.True(t, ok)
	assert.Equal(t, model.CardChance, e.Card.Type)
	assert.Equal(t, 10, e.Card.RepeatCount)
	assert.Equal(t, int64(1), e.Card.ScoreSubtract)
	assert.True(t, e.Card.IsRecurring())
}

func TestCatalog_ChanceCardsAreActionable(t *testing.T) {
	for _, e := range All() {
		c := e.Card
		if c.Type != model.CardChance {
			assert.Zero(t, c.RepeatCount, c.Name)
			continue
		}
		immediate := c.ScoreAdd > 0 || c.ScoreSubtract > 0 || c.ScoreSteal > 0 ||
			c.DrawChance > 0 || c.DrawSnapDare > 0 || c.DrawSpicy > 0
		assert.True(t, immediate || c.HasPersistentEffect(), "%s does nothing", c.Name)
	}
}

func TestDealable(t *testing.T) {
	tests := []struct {
		name   string
		card   model.Card
		gender model.Gender
		want   bool
	}{
		{"snap for her", model.Card{Type: model.CardSnap, ForHer: true}, model.GenderFemale, true},
		{"snap never for him", model.Card{Type: model.CardSnap, ForHer: true, ForHim: true}, model.GenderMale, false},
		{"dare for him", model.Card{Type: model.CardDare, ForHim: true}, model.GenderMale, true},
		{"dare never for her", model.Card{Type: model.CardDare, ForHer: true, ForHim: true}, model.GenderFemale, false},
		{"serve she can give him", model.Card{Type: model.CardServe, ServeToHim: true}, model.GenderFemale, true},
		{"serve only for her", model.Card{Type: model.CardServe, ServeToHer: true}, model.GenderFemale, false},
		{"serve he can give her", model.Card{Type: model.CardServe, ServeToHer: true}, model.GenderMale, true},
		{"spicy for him only", model.Card{Type: model.CardSpicy, ForHim: true}, model.GenderFemale, false},
		{"chance for both", model.Card{Type: model.CardChance, ForHer: true, ForHim: true}, model.GenderMale, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dealable(&tt.card, tt.gender))
		})
	}
}

type memWriter map[int64]model.Card

func (m memWriter) Upsert(_ context.Context, c *model.Card) error {
	m[c.ID] = *c
	return nil
}

func TestSeed_NormalizesEnums(t *testing.T) {
	w := memWriter{}
	require.NoError(t, Seed(context.Background(), w))

	require.Len(t, w, len(Cards))
	assert.Equal(t, model.VetoModifyNone, w[FootRub].VetoModify)
	assert.Equal(t, model.ScoreModifyNone, w[FootRub].ScoreModify)
	assert.Equal(t, model.ScoreModifyHalf, w[HalfMeasures].ScoreModify)
}

func TestNewGameAndJoin(t *testing.T) {
	pool := testdb.Postgres(t)
	ctx := context.Background()
	s := repository.NewStore(pool)
	require.NoError(t, Seed(ctx, s.Cards))

	tgHer, tgHim := int64(1001), int64(1002)
	game, her, err := NewGame(ctx, s, "date night", Seat{Name: "Ann", Gender: model.GenderFemale, TelegramID: &tgHer})
	require.NoError(t, err)
	_, err = Join(ctx, s, game.ID, Seat{Name: "Eve", Gender: model.GenderFemale})
	assert.ErrorIs(t, err, ErrSeatTaken)
	him, err := Join(ctx, s, game.ID, Seat{Name: "Bob", Gender: model.GenderMale, TelegramID: &tgHim})
	require.NoError(t, err)

	_, err = Join(ctx, s, game.ID, Seat{Name: "Cat", Gender: model.GenderFemale})
	assert.ErrorIs(t, err, ErrGameFull)

	snaps, err := s.Decks.ListAvailable(ctx, game.ID, her.ID, []model.CardType{model.CardSnap})
	require.NoError(t, err)
	assert.NotEmpty(t, snaps)
	dares, err := s.Decks.ListAvailable(ctx, game.ID, her.ID, []model.CardType{model.CardDare})
	require.NoError(t, err)
	assert.Empty(t, dares)

	dares, err = s.Decks.ListAvailable(ctx, game.ID, him.ID, []model.CardType{model.CardDare})
	require.NoError(t, err)
	assert.NotEmpty(t, dares)

	siphons, err := s.Decks.Quantity(ctx, game.ID, him.ID, ClockSiphon)
	require.NoError(t, err)
	assert.Equal(t, 1, siphons)
}
