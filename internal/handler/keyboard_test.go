package handler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-game-bot/internal/catalog"
	"duel-game-bot/internal/model"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data       string
		wantAction string
		wantArg    string
		wantOK     bool
	}{
		{"card_complete:42", ActionComplete, "42", true},
		{"\fcard_veto:7", ActionVeto, "7", true},
		{"card_win:1", ActionWin, "1", true},
		{"card_lose:1", ActionLose, "1", true},
		{"card_draw:snap", ActionDraw, "snap", true},
		{"card_refresh", CallbackRefresh, "", true},
		{"card_complete:", "", "", false},
		{"shop_item:handcuff", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			action, arg, ok := ParseCallback(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantArg, arg)
		})
	}
}

func TestDrawableTypes(t *testing.T) {
	assert.Contains(t, DrawableTypes(model.GenderFemale), model.CardSnap)
	assert.NotContains(t, DrawableTypes(model.GenderFemale), model.CardDare)
	assert.Contains(t, DrawableTypes(model.GenderMale), model.CardDare)
	assert.NotContains(t, DrawableTypes(model.GenderMale), model.CardSnap)
}

func TestBuildHandPanel(t *testing.T) {
	rub, _ := catalog.Get(catalog.FootRub)
	wrestle, _ := catalog.Get(catalog.ArmWrestle)
	hand := []HandCard{
		{Entry: &model.HandEntry{ID: 11, Quantity: 1, HandType: model.HandAcceptedServe}, Card: &rub.Card},
		{Entry: &model.HandEntry{ID: 12, Quantity: 1, HandType: model.HandSpicy}, Card: &wrestle.Card},
	}

	markup := BuildHandPanel(hand, model.GenderMale)
	require.Len(t, markup.InlineKeyboard, 4)

	// The prefix travels as the button's unique part; telebot sends it as "\f" + unique.
	var data []string
	for _, b := range markup.InlineKeyboard[0] {
		data = append(data, b.Unique)
	}
	assert.Equal(t, []string{CallbackComplete + "11", CallbackVeto + "11"}, data)

	data = data[:0]
	for _, b := range markup.InlineKeyboard[1] {
		data = append(data, b.Unique)
	}
	assert.Equal(t, []string{CallbackWin + "12", CallbackLose + "12", CallbackVeto + "12"}, data)

	assert.Len(t, markup.InlineKeyboard[2], len(DrawableTypes(model.GenderMale)))
}

func TestFormatHand(t *testing.T) {
	rub, _ := catalog.Get(catalog.FootRub)
	p := &model.Player{Name: "Ann", Score: 7}

	msg := FormatHand(p, []HandCard{
		{Entry: &model.HandEntry{ID: 11, Quantity: 2, HandType: model.HandServe}, Card: &rub.Card},
	}, []EffectInfo{
		{CardID: catalog.ClockSiphon, CardName: "Clock Siphon", Value: "1", Remaining: 9 * time.Minute},
	})

	assert.Contains(t, msg, "Ann's hand (7 points)")
	assert.Contains(t, msg, "Foot Rub x2 (+3) [serve]")
	assert.Contains(t, msg, "Clock Siphon (1) ⏱️ 9m")

	empty := FormatHand(p, nil, nil)
	assert.Contains(t, empty, "Your hand is empty")
	assert.NotContains(t, empty, "Active effects")
}

func TestFormatResponse(t *testing.T) {
	ok := &Response{
		Success:      true,
		Message:      "Foot Rub completed",
		ScoreChanges: []model.ScoreDelta{{PlayerID: 1, Points: 3}, {PlayerID: 2, Points: -1}},
		Penalties:    []string{"Bob has no chance cards left to draw"},
		DrawnCards:   []model.CardSummary{{CardID: catalog.HotSauce, Name: "Hot Sauce"}},
	}
	msg := FormatResponse(ok, map[int64]string{1: "Ann"})
	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Foot Rub completed", lines[0])
	assert.Equal(t, "📈 Ann +3", lines[1])
	assert.Equal(t, "📉 player 2 -1", lines[2])
	assert.Equal(t, "⚠️ Bob has no chance cards left to draw", lines[3])
	assert.Equal(t, "🂠 Drew 🌶️ Hot Sauce", lines[4])

	assert.Equal(t, "✅ Done", FormatResponse(&Response{Success: true}, nil))

	failed := &Response{Message: "complete your chance card first", BlockingCards: []string{"Cold Feet"}}
	assert.Equal(t, "❌ complete your chance card first: Cold Feet", FormatResponse(failed, nil))
}

func TestFormatStandings(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	msg := FormatStandings(
		[]*model.Player{{ID: 1, Name: "Ann", Score: 5}, {ID: 2, Name: "Bob", Score: 2}},
		[]*model.ScoreChange{{Delta: 3, NewScore: 5, CreatedAt: at}},
	)
	assert.Contains(t, msg, "Ann: 5 👑")
	assert.Contains(t, msg, "Bob: 2\n")
	assert.Contains(t, msg, "12:30 +3 → 5")

	tied := FormatStandings([]*model.Player{{ID: 1, Name: "Ann", Score: 2}, {ID: 2, Name: "Bob", Score: 2}}, nil)
	assert.NotContains(t, tied, "👑")
}

func TestFormatRemainingTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "expired"},
		{-time.Minute, "expired"},
		{30 * time.Second, "<1m"},
		{9*time.Minute + 59*time.Second, "9m"},
		{90 * time.Minute, "1h30m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRemainingTime(tt.in), tt.in.String())
	}
}
