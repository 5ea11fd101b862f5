package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/catalog"
	"duel-game-bot/internal/model"
)

// Callback data prefixes
const (
	CallbackComplete = "card_complete:" // card_complete:42
	CallbackVeto     = "card_veto:"     // card_veto:42
	CallbackWin      = "card_win:"      // card_win:42
	CallbackLose     = "card_lose:"     // card_lose:42
	CallbackDraw     = "card_draw:"     // card_draw:snap
	CallbackRefresh  = "card_refresh"
)

// HandCard is a hand entry with its catalog card.
type HandCard struct {
	Entry *model.HandEntry
	Card  *model.Card
}

// BuildHandPanel creates one row of action buttons per hand card and a row of draw buttons.
func BuildHandPanel(hand []HandCard, gender model.Gender) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row

	for _, hc := range hand {
		id := strconv.FormatInt(hc.Entry.ID, 10)
		label := fmt.Sprintf("%s %s", catalog.Emoji(hc.Card.ID), hc.Card.Name)
		if hc.Card.WinLoss {
			rows = append(rows, markup.Row(
				markup.Data("🏆 "+label, CallbackWin+id),
				markup.Data("💀 Lost", CallbackLose+id),
				markup.Data("❌ Veto", CallbackVeto+id),
			))
			continue
		}
		rows = append(rows, markup.Row(
			markup.Data("✅ "+label, CallbackComplete+id),
			markup.Data("❌ Veto", CallbackVeto+id),
		))
	}

	var draws []tele.Btn
	for _, t := range DrawableTypes(gender) {
		draws = append(draws, markup.Data("🂠 "+string(t), CallbackDraw+string(t)))
	}
	rows = append(rows, markup.Row(draws...))
	rows = append(rows, markup.Row(markup.Data("🔄 Refresh", CallbackRefresh)))

	markup.Inline(rows...)
	return markup
}

// DrawableTypes lists the card types a player may draw by hand.
func DrawableTypes(g model.Gender) []model.CardType {
	snapDare := model.CardDare
	if g == model.GenderFemale {
		snapDare = model.CardSnap
	}
	return []model.CardType{model.CardServe, model.CardChance, snapDare, model.CardSpicy}
}

// ParseCallback splits callback data into an action name and its argument.
func ParseCallback(data string) (action, arg string, ok bool) {
	data = strings.TrimPrefix(data, "\f")
	if data == CallbackRefresh {
		return CallbackRefresh, "", true
	}
	for prefix, name := range map[string]string{
		CallbackComplete: ActionComplete,
		CallbackVeto:     ActionVeto,
		CallbackWin:      ActionWin,
		CallbackLose:     ActionLose,
		CallbackDraw:     ActionDraw,
	} {
		if rest, found := strings.CutPrefix(data, prefix); found && rest != "" {
			return name, rest, true
		}
	}
	return "", "", false
}

// FormatHand renders a player's hand, armed effects and running timers.
func FormatHand(p *model.Player, hand []HandCard, effects []EffectInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🃏 %s's hand (%d points)\n", p.Name, p.Score)
	b.WriteString("━━━━━━━━━━━━━━━\n")

	if len(hand) == 0 {
		b.WriteString("Your hand is empty. Draw a card below.\n")
	}
	for _, hc := range hand {
		fmt.Fprintf(&b, "%s %s", catalog.Emoji(hc.Card.ID), hc.Card.Name)
		if hc.Entry.Quantity > 1 {
			fmt.Fprintf(&b, " x%d", hc.Entry.Quantity)
		}
		if hc.Card.Reward != 0 {
			fmt.Fprintf(&b, " (%+d)", hc.Card.Reward)
		}
		fmt.Fprintf(&b, " [%s]\n", hc.Entry.HandType)
	}

	if len(effects) > 0 {
		b.WriteString("━━━━━━━━━━━━━━━\n")
		b.WriteString("⚡ Active effects\n")
		for _, e := range effects {
			fmt.Fprintf(&b, "%s %s", catalog.Emoji(e.CardID), e.CardName)
			if e.Value != "" {
				fmt.Fprintf(&b, " (%s)", e.Value)
			}
			if e.Remaining > 0 {
				fmt.Fprintf(&b, " ⏱️ %s", FormatRemainingTime(e.Remaining))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// EffectInfo holds effect display information
type EffectInfo struct {
	CardID    int64
	CardName  string
	Value     string
	Remaining time.Duration
}

// FormatResponse renders an action result.
func FormatResponse(r *Response, names map[int64]string) string {
	if !r.Success {
		msg := "❌ " + r.Message
		if len(r.BlockingCards) > 0 {
			msg += ": " + strings.Join(r.BlockingCards, ", ")
		}
		return msg
	}

	var b strings.Builder
	if r.Message != "" {
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	for _, sc := range r.ScoreChanges {
		name := names[sc.PlayerID]
		if name == "" {
			name = fmt.Sprintf("player %d", sc.PlayerID)
		}
		fmt.Fprintf(&b, "%s %s %+d\n", scoreIcon(sc.Points), name, sc.Points)
	}
	for _, p := range r.Penalties {
		fmt.Fprintf(&b, "⚠️ %s\n", p)
	}
	for _, dc := range r.DrawnCards {
		fmt.Fprintf(&b, "🂠 Drew %s %s\n", catalog.Emoji(dc.CardID), dc.Name)
	}
	if b.Len() == 0 {
		return "✅ Done"
	}
	return strings.TrimRight(b.String(), "\n")
}

func scoreIcon(points int64) string {
	switch {
	case points > 0:
		return "📈"
	case points < 0:
		return "📉"
	}
	return "➖"
}

// FormatStandings renders both scores and the last changes of the viewer.
func FormatStandings(players []*model.Player, history []*model.ScoreChange) string {
	var b strings.Builder
	b.WriteString("🏁 Score\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	lead := leader(players)
	for _, p := range players {
		crown := ""
		if p.ID == lead {
			crown = " 👑"
		}
		fmt.Fprintf(&b, "%s: %d%s\n", p.Name, p.Score, crown)
	}
	if len(history) > 0 {
		b.WriteString("━━━━━━━━━━━━━━━\n")
		for _, h := range history {
			fmt.Fprintf(&b, "%s %+d → %d\n", h.CreatedAt.Format("15:04"), h.Delta, h.NewScore)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func leader(players []*model.Player) int64 {
	if len(players) != 2 || players[0].Score == players[1].Score {
		return 0
	}
	if players[0].Score > players[1].Score {
		return players[0].ID
	}
	return players[1].ID
}

// FormatRemainingTime formats remaining time for display
func FormatRemainingTime(remaining time.Duration) string {
	if remaining <= 0 {
		return "expired"
	}

	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	if minutes == 0 {
		return "<1m"
	}
	return fmt.Sprintf("%dm", minutes)
}
