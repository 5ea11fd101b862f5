// Package model defines the data models for the duel card game.
package model

import "time"

// Gender drives card eligibility (snap cards are for her, dare cards for him).
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// CardType is the catalog type of a card.
type CardType string

const (
	CardServe  CardType = "serve"
	CardChance CardType = "chance"
	CardSnap   CardType = "snap"
	CardDare   CardType = "dare"
	CardSpicy  CardType = "spicy"
)

// HandType is the contextual type of a card sitting in a hand.
// A serve card becomes an accepted_serve entry in the recipient's hand.
type HandType string

const (
	HandServe         HandType = "serve"
	HandAcceptedServe HandType = "accepted_serve"
	HandSnap          HandType = "snap"
	HandDare          HandType = "dare"
	HandSpicy         HandType = "spicy"
	HandChance        HandType = "chance"
)

// IsChallenge reports whether completing this entry pays a challenge reward.
func (h HandType) IsChallenge() bool {
	return h == HandServe || h == HandAcceptedServe
}

// ScoreModify names the challenge-modify behavior of a chance card.
type ScoreModify string

const (
	ScoreModifyNone                    ScoreModify = "none"
	ScoreModifyHalf                    ScoreModify = "half"
	ScoreModifyZero                    ScoreModify = "zero"
	ScoreModifyOpponentDouble          ScoreModify = "opponent_double"
	ScoreModifyOpponentExtraPoint      ScoreModify = "opponent_extra_point"
	ScoreModifyChallengeRewardOpponent ScoreModify = "challenge_reward_opponent"
)

// VetoModify names the veto-modify behavior of a chance card.
type VetoModify string

const (
	VetoModifyNone           VetoModify = "none"
	VetoModifyDouble         VetoModify = "double"
	VetoModifySkip           VetoModify = "skip"
	VetoModifyOpponentDouble VetoModify = "opponent_double"
)

// EffectType is the kind of an active chance effect.
type EffectType string

const (
	EffectChallengeModify     EffectType = "challenge_modify"
	EffectSnapModify          EffectType = "snap_modify"
	EffectDareModify          EffectType = "dare_modify"
	EffectSpicyModify         EffectType = "spicy_modify"
	EffectVetoModify          EffectType = "veto_modify"
	EffectBeforeNextChallenge EffectType = "before_next_challenge"
	EffectRecurringTimer      EffectType = "recurring_timer"
	EffectTimer               EffectType = "timer_effect"
)

// Values stored in ActiveEffect.EffectValue for snap/dare/spicy modifiers.
const (
	TypeModifyDouble = "double"
	TypeModifyModify = "modify"
)

// Outcome is the result reported for a win/loss card.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Game is a two-player game.
type Game struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Digital   bool      `db:"digital"`
	CreatedAt time.Time `db:"created_at"`
}

// Player is one of the two participants of a game.
type Player struct {
	ID         int64     `db:"id"`
	GameID     int64     `db:"game_id"`
	Name       string    `db:"name"`
	Gender     Gender    `db:"gender"`
	Score      int64     `db:"score"`
	TelegramID *int64    `db:"telegram_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Card is an immutable catalog entry.
type Card struct {
	ID          int64    `db:"id"`
	Name        string   `db:"name"`
	Description string   `db:"description"`
	Type        CardType `db:"type"`
	Reward      int64    `db:"reward"`

	ForHer     bool `db:"for_her"`
	ForHim     bool `db:"for_him"`
	ServeToHer bool `db:"serve_to_her"`
	ServeToHim bool `db:"serve_to_him"`

	ChallengeModify         bool        `db:"challenge_modify"`
	OpponentChallengeModify bool        `db:"opponent_challenge_modify"`
	SnapModify              bool        `db:"snap_modify"`
	DareModify              bool        `db:"dare_modify"`
	SpicyModify             bool        `db:"spicy_modify"`
	VetoModify              VetoModify  `db:"veto_modify"`
	ScoreModify             ScoreModify `db:"score_modify"`

	// Immediate chance effects. For recurring cards ScoreSubtract is the per-tick penalty instead.
	ScoreAdd      int64 `db:"score_add"`
	ScoreSubtract int64 `db:"score_subtract"`
	ScoreSteal    int64 `db:"score_steal"`
	DrawChance    int   `db:"draw_chance"`
	DrawSnapDare  int   `db:"draw_snap_dare"`
	DrawSpicy     int   `db:"draw_spicy"`

	VetoSubtract     int64 `db:"veto_subtract"`
	VetoSteal        int64 `db:"veto_steal"`
	VetoDrawChance   int   `db:"veto_draw_chance"`
	VetoDrawSnapDare int   `db:"veto_draw_snap_dare"`
	VetoDrawSpicy    int   `db:"veto_draw_spicy"`

	TimerMinutes        int  `db:"timer_minutes"`
	RepeatCount         int  `db:"repeat_count"`
	WinLoss             bool `db:"win_loss"`
	DoubleIt            bool `db:"double_it"`
	BeforeNextChallenge bool `db:"before_next_challenge"`
	// RollsDice cards stay in hand after their timer fires and are completed by hand.
	RollsDice bool `db:"rolls_dice"`
}

// HasTimer reports whether effects armed by the card expire on a timer.
func (c *Card) HasTimer() bool {
	return c.TimerMinutes > 0
}

// IsRecurring reports whether the card re-fires its penalty on an interval.
func (c *Card) IsRecurring() bool {
	return c.RepeatCount > 0
}

// HasVetoModify reports whether the card carries a veto modifier.
func (c *Card) HasVetoModify() bool {
	return c.VetoModify != "" && c.VetoModify != VetoModifyNone
}

// HasPersistentEffect reports whether activating the card leaves anything armed.
// Cards without one are discarded as soon as they are activated.
func (c *Card) HasPersistentEffect() bool {
	return c.BeforeNextChallenge ||
		c.ChallengeModify || c.OpponentChallengeModify ||
		c.SnapModify || c.DareModify || c.SpicyModify ||
		c.HasVetoModify() || c.HasTimer() || c.IsRecurring()
}

// TypeModifyValue is the stored value of a snap/dare/spicy modifier armed by this card.
func (c *Card) TypeModifyValue() string {
	if c.DoubleIt {
		return TypeModifyDouble
	}
	return TypeModifyModify
}

// HandEntry is a quantity of one card in a player's hand under one contextual type.
type HandEntry struct {
	ID        int64     `db:"id"`
	GameID    int64     `db:"game_id"`
	PlayerID  int64     `db:"player_id"`
	CardID    int64     `db:"card_id"`
	HandType  HandType  `db:"card_type"`
	Quantity  int       `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
}

// DeckEntry is a quantity of one card in a player's draw deck.
type DeckEntry struct {
	GameID   int64 `db:"game_id"`
	PlayerID int64 `db:"player_id"`
	CardID   int64 `db:"card_id"`
	Quantity int   `db:"quantity"`
}

// ActiveEffect is an armed modifier, blocker or timer effect.
type ActiveEffect struct {
	ID             int64      `db:"id"`
	GameID         int64      `db:"game_id"`
	PlayerID       int64      `db:"player_id"`
	TargetPlayerID *int64     `db:"target_player_id"`
	CardID         int64      `db:"card_id"`
	EffectType     EffectType `db:"effect_type"`
	EffectValue    string     `db:"effect_value"`
	TimerID        *int64     `db:"timer_id"`
	CreatedAt      time.Time  `db:"created_at"`
}

// ResolvedTarget is the player the effect applies to: the target if set, else the owner.
func (e *ActiveEffect) ResolvedTarget() int64 {
	if e.TargetPlayerID != nil {
		return *e.TargetPlayerID
	}
	return e.PlayerID
}

// Timer is a durable pending expiry.
type Timer struct {
	ID              int64     `db:"id"`
	GameID          int64     `db:"game_id"`
	PlayerID        int64     `db:"player_id"`
	CardID          *int64    `db:"card_id"`
	Description     string    `db:"description"`
	DurationMinutes int       `db:"duration_minutes"`
	StartAt         time.Time `db:"start_at"`
	EndAt           time.Time `db:"end_at"`
	IsActive        bool      `db:"is_active"`
}

// Duration returns the timer length.
func (t *Timer) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// ScoreChange is an append-only score history row.
type ScoreChange struct {
	ID             int64     `db:"id"`
	GameID         int64     `db:"game_id"`
	PlayerID       int64     `db:"player_id"`
	ActingPlayerID int64     `db:"acting_player_id"`
	OldScore       int64     `db:"old_score"`
	NewScore       int64     `db:"new_score"`
	Delta          int64     `db:"delta"`
	CreatedAt      time.Time `db:"created_at"`
}

// ScoreDelta is one realized score change reported back to callers.
type ScoreDelta struct {
	PlayerID int64 `json:"player_id"`
	Points   int64 `json:"points"`
}

// CardSummary describes a drawn card for the caller.
type CardSummary struct {
	HandCardID int64    `json:"hand_card_id"`
	CardID     int64    `json:"card_id"`
	Name       string   `json:"name"`
	Type       HandType `json:"type"`
}
