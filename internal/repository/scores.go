package repository

import (
	"context"
	"fmt"

	"duel-game-bot/internal/model"
)

// ScoreRepository handles the append-only score history.
type ScoreRepository struct {
	db DBTX
}

// NewScoreRepository creates a new ScoreRepository instance.
func NewScoreRepository(db DBTX) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Create records one score change.
func (r *ScoreRepository) Create(ctx context.Context, c *model.ScoreChange) (*model.ScoreChange, error) {
	const query = `
		INSERT INTO score_history (game_id, player_id, acting_player_id, old_score, new_score, delta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, game_id, player_id, acting_player_id, old_score, new_score, delta, created_at
	`

	var out model.ScoreChange
	err := r.db.QueryRow(ctx, query, c.GameID, c.PlayerID, c.ActingPlayerID, c.OldScore, c.NewScore, c.Delta).Scan(
		&out.ID,
		&out.GameID,
		&out.PlayerID,
		&out.ActingPlayerID,
		&out.OldScore,
		&out.NewScore,
		&out.Delta,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create score change: %w", err)
	}

	return &out, nil
}

// ListByPlayer returns a player's score history, newest first.
func (r *ScoreRepository) ListByPlayer(ctx context.Context, gameID, playerID int64, limit int) ([]*model.ScoreChange, error) {
	const query = `
		SELECT id, game_id, player_id, acting_player_id, old_score, new_score, delta, created_at
		FROM score_history
		WHERE game_id = $1 AND player_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, gameID, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	defer rows.Close()

	var changes []*model.ScoreChange
	for rows.Next() {
		var c model.ScoreChange
		err := rows.Scan(
			&c.ID,
			&c.GameID,
			&c.PlayerID,
			&c.ActingPlayerID,
			&c.OldScore,
			&c.NewScore,
			&c.Delta,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score change: %w", err)
		}
		changes = append(changes, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score history: %w", err)
	}

	return changes, nil
}

// CountByGame returns the number of history rows written for a game.
func (r *ScoreRepository) CountByGame(ctx context.Context, gameID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM score_history WHERE game_id = $1`

	var n int
	if err := r.db.QueryRow(ctx, query, gameID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count score history: %w", err)
	}
	return n, nil
}
