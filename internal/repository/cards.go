package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-game-bot/internal/model"
)

// CardRepository reads and seeds the immutable card catalog.
type CardRepository struct {
	db DBTX
}

// NewCardRepository creates a new CardRepository instance.
func NewCardRepository(db DBTX) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `id, name, description, type, reward,
	for_her, for_him, serve_to_her, serve_to_him,
	challenge_modify, opponent_challenge_modify, snap_modify, dare_modify, spicy_modify,
	veto_modify, score_modify,
	score_add, score_subtract, score_steal, draw_chance, draw_snap_dare, draw_spicy,
	veto_subtract, veto_steal, veto_draw_chance, veto_draw_snap_dare, veto_draw_spicy,
	timer_minutes, repeat_count, win_loss, double_it, before_next_challenge, rolls_dice`

func cardFields(c *model.Card) []any {
	return []any{
		&c.ID, &c.Name, &c.Description, &c.Type, &c.Reward,
		&c.ForHer, &c.ForHim, &c.ServeToHer, &c.ServeToHim,
		&c.ChallengeModify, &c.OpponentChallengeModify, &c.SnapModify, &c.DareModify, &c.SpicyModify,
		&c.VetoModify, &c.ScoreModify,
		&c.ScoreAdd, &c.ScoreSubtract, &c.ScoreSteal, &c.DrawChance, &c.DrawSnapDare, &c.DrawSpicy,
		&c.VetoSubtract, &c.VetoSteal, &c.VetoDrawChance, &c.VetoDrawSnapDare, &c.VetoDrawSpicy,
		&c.TimerMinutes, &c.RepeatCount, &c.WinLoss, &c.DoubleIt, &c.BeforeNextChallenge, &c.RollsDice,
	}
}

// GetByID retrieves a catalog card.
// Returns ErrCardNotFound if the card does not exist.
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	var c model.Card
	if err := r.db.QueryRow(ctx, query, id).Scan(cardFields(&c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &c, nil
}

// Upsert writes a catalog card, replacing any previous definition with the same ID.
func (r *CardRepository) Upsert(ctx context.Context, c *model.Card) error {
	const query = `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			type = EXCLUDED.type,
			reward = EXCLUDED.reward,
			for_her = EXCLUDED.for_her,
			for_him = EXCLUDED.for_him,
			serve_to_her = EXCLUDED.serve_to_her,
			serve_to_him = EXCLUDED.serve_to_him,
			challenge_modify = EXCLUDED.challenge_modify,
			opponent_challenge_modify = EXCLUDED.opponent_challenge_modify,
			snap_modify = EXCLUDED.snap_modify,
			dare_modify = EXCLUDED.dare_modify,
			spicy_modify = EXCLUDED.spicy_modify,
			veto_modify = EXCLUDED.veto_modify,
			score_modify = EXCLUDED.score_modify,
			score_add = EXCLUDED.score_add,
			score_subtract = EXCLUDED.score_subtract,
			score_steal = EXCLUDED.score_steal,
			draw_chance = EXCLUDED.draw_chance,
			draw_snap_dare = EXCLUDED.draw_snap_dare,
			draw_spicy = EXCLUDED.draw_spicy,
			veto_subtract = EXCLUDED.veto_subtract,
			veto_steal = EXCLUDED.veto_steal,
			veto_draw_chance = EXCLUDED.veto_draw_chance,
			veto_draw_snap_dare = EXCLUDED.veto_draw_snap_dare,
			veto_draw_spicy = EXCLUDED.veto_draw_spicy,
			timer_minutes = EXCLUDED.timer_minutes,
			repeat_count = EXCLUDED.repeat_count,
			win_loss = EXCLUDED.win_loss,
			double_it = EXCLUDED.double_it,
			before_next_challenge = EXCLUDED.before_next_challenge,
			rolls_dice = EXCLUDED.rolls_dice
	`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.Name, c.Description, c.Type, c.Reward,
		c.ForHer, c.ForHim, c.ServeToHer, c.ServeToHim,
		c.ChallengeModify, c.OpponentChallengeModify, c.SnapModify, c.DareModify, c.SpicyModify,
		c.VetoModify, c.ScoreModify,
		c.ScoreAdd, c.ScoreSubtract, c.ScoreSteal, c.DrawChance, c.DrawSnapDare, c.DrawSpicy,
		c.VetoSubtract, c.VetoSteal, c.VetoDrawChance, c.VetoDrawSnapDare, c.VetoDrawSpicy,
		c.TimerMinutes, c.RepeatCount, c.WinLoss, c.DoubleIt, c.BeforeNextChallenge, c.RollsDice,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %d: %w", c.ID, err)
	}
	return nil
}
