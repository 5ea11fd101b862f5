package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-game-bot/internal/model"
)

// EffectRepository handles the active effect registry.
// At most one effect of a type may target a player; the unique index on
// (game_id, effect_type, COALESCE(target_player_id, player_id)) enforces it.
type EffectRepository struct {
	db DBTX
}

// NewEffectRepository creates a new EffectRepository instance.
func NewEffectRepository(db DBTX) *EffectRepository {
	return &EffectRepository{db: db}
}

const effectColumns = `id, game_id, player_id, target_player_id, card_id, effect_type, effect_value, timer_id, created_at`

func scanEffect(row pgx.Row) (*model.ActiveEffect, error) {
	var e model.ActiveEffect
	err := row.Scan(
		&e.ID,
		&e.GameID,
		&e.PlayerID,
		&e.TargetPlayerID,
		&e.CardID,
		&e.EffectType,
		&e.EffectValue,
		&e.TimerID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EffectRepository) list(ctx context.Context, query string, args ...any) ([]*model.ActiveEffect, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list effects: %w", err)
	}
	defer rows.Close()

	var effects []*model.ActiveEffect
	for rows.Next() {
		e, err := scanEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan effect: %w", err)
		}
		effects = append(effects, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating effects: %w", err)
	}

	return effects, nil
}

// InsertIfAbsent arms an effect unless one of the same type already targets the same player.
// Returns the stored effect and true when inserted, or nil and false when the slot was taken.
func (r *EffectRepository) InsertIfAbsent(ctx context.Context, e *model.ActiveEffect) (*model.ActiveEffect, bool, error) {
	query := `
		INSERT INTO active_chance_effects (game_id, player_id, target_player_id, card_id, effect_type, effect_value, timer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT DO NOTHING
		RETURNING ` + effectColumns

	out, err := scanEffect(r.db.QueryRow(ctx, query,
		e.GameID, e.PlayerID, e.TargetPlayerID, e.CardID, e.EffectType, e.EffectValue, e.TimerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert effect: %w", err)
	}
	return out, true, nil
}

// FindForTarget returns the effect of a type that applies to a player, or nil if none is armed.
// The row is locked so concurrent consumers serialize on it.
func (r *EffectRepository) FindForTarget(ctx context.Context, gameID int64, effectType model.EffectType, targetID int64) (*model.ActiveEffect, error) {
	query := `SELECT ` + effectColumns + ` FROM active_chance_effects
		WHERE game_id = $1 AND effect_type = $2 AND COALESCE(target_player_id, player_id) = $3
		FOR UPDATE`

	e, err := scanEffect(r.db.QueryRow(ctx, query, gameID, effectType, targetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find effect: %w", err)
	}
	return e, nil
}

// ListByCard returns the effects a player armed from one card.
func (r *EffectRepository) ListByCard(ctx context.Context, gameID, playerID, cardID int64) ([]*model.ActiveEffect, error) {
	query := `SELECT ` + effectColumns + ` FROM active_chance_effects
		WHERE game_id = $1 AND player_id = $2 AND card_id = $3
		ORDER BY id
		FOR UPDATE`
	return r.list(ctx, query, gameID, playerID, cardID)
}

// ListByTimer returns the effects linked to a timer.
func (r *EffectRepository) ListByTimer(ctx context.Context, timerID int64) ([]*model.ActiveEffect, error) {
	query := `SELECT ` + effectColumns + ` FROM active_chance_effects
		WHERE timer_id = $1
		ORDER BY id
		FOR UPDATE`
	return r.list(ctx, query, timerID)
}

// ListByGame returns every armed effect of a game.
func (r *EffectRepository) ListByGame(ctx context.Context, gameID int64) ([]*model.ActiveEffect, error) {
	query := `SELECT ` + effectColumns + ` FROM active_chance_effects WHERE game_id = $1 ORDER BY id`
	return r.list(ctx, query, gameID)
}

// Delete removes an effect. Deleting an effect that is already gone is not an error;
// the returned bool reports whether a row was removed.
func (r *EffectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM active_chance_effects WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete effect: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// SetTimer links an effect to a timer.
func (r *EffectRepository) SetTimer(ctx context.Context, id, timerID int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE active_chance_effects SET timer_id = $2 WHERE id = $1`, id, timerID); err != nil {
		return fmt.Errorf("failed to link effect timer: %w", err)
	}
	return nil
}
