// Package catalog holds the built-in card catalog and deals it into player decks.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"duel-game-bot/internal/model"
)

// Entry is a catalog card and the copies of it dealt into every eligible deck.
type Entry struct {
	Card   model.Card
	Copies int
	Emoji  string
}

// Card IDs. New cards take the next free ID; IDs are never reused.
const (
	FootRub int64 = iota + 1
	BreakfastInBed
	BackScratch
	Selfie
	MirrorShot
	PushUpSet
	ColdShower
	HotSauce
	ArmWrestle
	HalfMeasures
	Pickpocket
	DoubleDown
	GetOutOfJail
	MakeItHurt
	SayCheese
	ShowOff
	ColdFeet
	Windfall
	ClockSiphon
	RollForIt
	ExtraCredit
	SpiceRack
)

// Cards contains every built-in card keyed by ID.
var Cards = map[int64]Entry{
	FootRub: {
		Card: model.Card{
			ID: FootRub, Name: "Foot Rub", Type: model.CardServe, Reward: 3,
			Description: "Ten minutes, no complaints.",
			ServeToHer:  true, ServeToHim: true,
			VetoSubtract: 1,
		},
		Copies: 3, Emoji: "🦶",
	},
	BreakfastInBed: {
		Card: model.Card{
			ID: BreakfastInBed, Name: "Breakfast In Bed", Type: model.CardServe, Reward: 5,
			Description: "Tray, coffee, the works.",
			ServeToHer:  true, ServeToHim: true,
			VetoSubtract: 2, VetoDrawChance: 1,
		},
		Copies: 2, Emoji: "🥞",
	},
	BackScratch: {
		Card: model.Card{
			ID: BackScratch, Name: "Back Scratch", Type: model.CardServe, Reward: 2,
			Description: "Left a bit. No, right.",
			ServeToHer:  true, ServeToHim: true,
		},
		Copies: 3, Emoji: "🤚",
	},
	Selfie: {
		Card: model.Card{
			ID: Selfie, Name: "Selfie", Type: model.CardSnap, Reward: 2,
			Description: "Send one, right now.",
			ForHer:      true, VetoDrawChance: 1,
		},
		Copies: 3, Emoji: "🤳",
	},
	MirrorShot: {
		Card: model.Card{
			ID: MirrorShot, Name: "Mirror Shot", Type: model.CardSnap, Reward: 3,
			Description: "Outfit check in the mirror.",
			ForHer:      true, VetoSubtract: 1,
		},
		Copies: 2, Emoji: "🪞",
	},
	PushUpSet: {
		Card: model.Card{
			ID: PushUpSet, Name: "Push-Up Set", Type: model.CardDare, Reward: 2,
			Description: "Twenty, on camera.",
			ForHim:      true, VetoDrawChance: 1,
		},
		Copies: 3, Emoji: "💪",
	},
	ColdShower: {
		Card: model.Card{
			ID: ColdShower, Name: "Cold Shower", Type: model.CardDare, Reward: 3,
			Description: "Sixty seconds, fully cold.",
			ForHim:      true, VetoSubtract: 1,
		},
		Copies: 2, Emoji: "🚿",
	},
	HotSauce: {
		Card: model.Card{
			ID: HotSauce, Name: "Hot Sauce", Type: model.CardSpicy, Reward: 4,
			Description: "One spoon of the hottest bottle in the house.",
			ForHer:      true, ForHim: true,
			VetoSteal: 2, VetoDrawSpicy: 1,
		},
		Copies: 2, Emoji: "🌶️",
	},
	ArmWrestle: {
		Card: model.Card{
			ID: ArmWrestle, Name: "Arm Wrestle", Type: model.CardSpicy, Reward: 4,
			Description: "Best of three. Report who won.",
			ForHer:      true, ForHim: true,
			WinLoss: true, VetoSubtract: 2,
		},
		Copies: 1, Emoji: "🤼",
	},
	HalfMeasures: {
		Card: model.Card{
			ID: HalfMeasures, Name: "Half Measures", Type: model.CardChance,
			Description:     "Your next challenge pays half.",
			ForHer:          true, ForHim: true,
			ChallengeModify: true, ScoreModify: model.ScoreModifyHalf,
		},
		Copies: 1, Emoji: "🌗",
	},
	Pickpocket: {
		Card: model.Card{
			ID: Pickpocket, Name: "Pickpocket", Type: model.CardChance,
			Description:             "For the next hour, your opponent's next challenge reward is yours.",
			ForHer:                  true, ForHim: true,
			OpponentChallengeModify: true, ScoreModify: model.ScoreModifyChallengeRewardOpponent,
			TimerMinutes:            60,
		},
		Copies: 1, Emoji: "🫳",
	},
	DoubleDown: {
		Card: model.Card{
			ID: DoubleDown, Name: "Double Down", Type: model.CardChance,
			Description: "Your next veto costs double.",
			ForHer:      true, ForHim: true,
			VetoModify:  model.VetoModifyDouble,
		},
		Copies: 1, Emoji: "⏫",
	},
	GetOutOfJail: {
		Card: model.Card{
			ID: GetOutOfJail, Name: "Get Out Of Jail", Type: model.CardChance,
			Description: "Your next veto is free.",
			ForHer:      true, ForHim: true,
			VetoModify:  model.VetoModifySkip,
		},
		Copies: 1, Emoji: "🗝️",
	},
	MakeItHurt: {
		Card: model.Card{
			ID: MakeItHurt, Name: "Make It Hurt", Type: model.CardChance,
			Description: "Your opponent's next veto costs double.",
			ForHer:      true, ForHim: true,
			VetoModify:  model.VetoModifyOpponentDouble,
		},
		Copies: 1, Emoji: "😈",
	},
	SayCheese: {
		Card: model.Card{
			ID: SayCheese, Name: "Say Cheese", Type: model.CardChance,
			Description: "The next snap pays double, and double hurts to veto.",
			ForHer:      true, ForHim: true,
			SnapModify:  true, DoubleIt: true,
		},
		Copies: 1, Emoji: "📸",
	},
	ShowOff: {
		Card: model.Card{
			ID: ShowOff, Name: "Show Off", Type: model.CardChance,
			Description: "Bonus point on the next dare, or steal its reward.",
			ForHer:      true, ForHim: true,
			DareModify:  true,
		},
		Copies: 1, Emoji: "🦚",
	},
	ColdFeet: {
		Card: model.Card{
			ID: ColdFeet, Name: "Cold Feet", Type: model.CardChance,
			Description:         "No challenges until you complete this card.",
			ForHer:              true, ForHim: true,
			BeforeNextChallenge: true,
		},
		Copies: 1, Emoji: "🧊",
	},
	Windfall: {
		Card: model.Card{
			ID: Windfall, Name: "Windfall", Type: model.CardChance,
			Description: "Take 2 points and draw a spicy card.",
			ForHer:      true, ForHim: true,
			ScoreAdd:    2, DrawSpicy: 1,
		},
		Copies: 1, Emoji: "💸",
	},
	ClockSiphon: {
		Card: model.Card{
			ID: ClockSiphon, Name: "Clock Siphon", Type: model.CardChance,
			Description:   "Lose a point every 10 minutes until you complete this card.",
			ForHer:        true, ForHim: true,
			RepeatCount:   10, ScoreSubtract: 1,
		},
		Copies: 1, Emoji: "⏳",
	},
	RollForIt: {
		Card: model.Card{
			ID: RollForIt, Name: "Roll For It", Type: model.CardChance,
			Description:  "Roll a die when the timer is up, then complete this card.",
			ForHer:       true, ForHim: true,
			TimerMinutes: 5, RollsDice: true,
		},
		Copies: 1, Emoji: "🎲",
	},
	ExtraCredit: {
		Card: model.Card{
			ID: ExtraCredit, Name: "Extra Credit", Type: model.CardChance,
			Description:     "Your next challenge pays one extra point.",
			ForHer:          true, ForHim: true,
			ChallengeModify: true, ScoreModify: model.ScoreModifyOpponentExtraPoint,
		},
		Copies: 1, Emoji: "➕",
	},
	SpiceRack: {
		Card: model.Card{
			ID: SpiceRack, Name: "Spice Rack", Type: model.CardChance,
			Description:  "For 30 minutes, your next spicy card pays double.",
			ForHer:       true, ForHim: true,
			SpicyModify:  true, DoubleIt: true, TimerMinutes: 30,
		},
		Copies: 1, Emoji: "🧂",
	},
}

// All returns every catalog entry ordered by card ID.
func All() []Entry {
	entries := make([]Entry, 0, len(Cards))
	for _, e := range Cards {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Card.ID < entries[j].Card.ID })
	return entries
}

// Get returns the catalog entry for a card ID.
func Get(id int64) (Entry, bool) {
	e, ok := Cards[id]
	return e, ok
}

// Emoji returns the icon for a card, or a blank card for unknown IDs.
func Emoji(id int64) string {
	if e, ok := Cards[id]; ok && e.Emoji != "" {
		return e.Emoji
	}
	return "🃏"
}

// CardWriter stores catalog cards.
type CardWriter interface {
	Upsert(ctx context.Context, c *model.Card) error
}

// Seed writes the built-in catalog, replacing older definitions of the same cards.
func Seed(ctx context.Context, w CardWriter) error {
	for _, e := range All() {
		c := e.Card
		if c.VetoModify == "" {
			c.VetoModify = model.VetoModifyNone
		}
		if c.ScoreModify == "" {
			c.ScoreModify = model.ScoreModifyNone
		}
		if err := w.Upsert(ctx, &c); err != nil {
			return fmt.Errorf("failed to seed %s: %w", c.Name, err)
		}
	}
	return nil
}
