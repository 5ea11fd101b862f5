package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"duel-game-bot/internal/model"
)

// TimerRepository handles durable timers.
type TimerRepository struct {
	db DBTX
}

// NewTimerRepository creates a new TimerRepository instance.
func NewTimerRepository(db DBTX) *TimerRepository {
	return &TimerRepository{db: db}
}

const timerColumns = `id, game_id, player_id, card_id, description, duration_minutes, start_at, end_at, is_active`

func scanTimer(row pgx.Row) (*model.Timer, error) {
	var t model.Timer
	err := row.Scan(
		&t.ID,
		&t.GameID,
		&t.PlayerID,
		&t.CardID,
		&t.Description,
		&t.DurationMinutes,
		&t.StartAt,
		&t.EndAt,
		&t.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create stores an active timer.
func (r *TimerRepository) Create(ctx context.Context, t *model.Timer) (*model.Timer, error) {
	query := `
		INSERT INTO timers (game_id, player_id, card_id, description, duration_minutes, start_at, end_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING ` + timerColumns

	out, err := scanTimer(r.db.QueryRow(ctx, query,
		t.GameID, t.PlayerID, t.CardID, t.Description, t.DurationMinutes, t.StartAt, t.EndAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create timer: %w", err)
	}
	return out, nil
}

// GetForUpdate retrieves a timer and locks it.
// Returns ErrTimerNotFound if the timer does not exist.
func (r *TimerRepository) GetForUpdate(ctx context.Context, id int64) (*model.Timer, error) {
	query := `SELECT ` + timerColumns + ` FROM timers WHERE id = $1 FOR UPDATE`

	t, err := scanTimer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}
	return t, nil
}

// Deactivate marks a timer as fired. Returns false if it was already inactive or gone.
func (r *TimerRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `UPDATE timers SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate timer: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes a timer. Linked effects keep existing with their timer cleared.
func (r *TimerRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM timers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete timer: %w", err)
	}
	return nil
}

// GetByID retrieves a timer without locking it.
// Returns ErrTimerNotFound if the timer does not exist.
func (r *TimerRepository) GetByID(ctx context.Context, id int64) (*model.Timer, error) {
	query := `SELECT ` + timerColumns + ` FROM timers WHERE id = $1`

	t, err := scanTimer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}
	return t, nil
}

// ListForCard returns a player's timers started by one card, fired or not.
func (r *TimerRepository) ListForCard(ctx context.Context, gameID, playerID, cardID int64) ([]*model.Timer, error) {
	query := `SELECT ` + timerColumns + ` FROM timers
		WHERE game_id = $1 AND player_id = $2 AND card_id = $3
		ORDER BY id
		FOR UPDATE`

	rows, err := r.db.Query(ctx, query, gameID, playerID, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card timers: %w", err)
	}
	defer rows.Close()

	var timers []*model.Timer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		timers = append(timers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timers: %w", err)
	}

	return timers, nil
}

// ListDue returns the IDs of active timers that ended before the cutoff, oldest first.
func (r *TimerRepository) ListDue(ctx context.Context, before time.Time, limit int) ([]int64, error) {
	const query = `
		SELECT id FROM timers
		WHERE is_active AND end_at <= $1
		ORDER BY end_at, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due timers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan timer id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due timers: %w", err)
	}

	return ids, nil
}
