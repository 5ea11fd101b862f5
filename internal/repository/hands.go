package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-game-bot/internal/model"
)

// HandRepository handles the cards players hold.
type HandRepository struct {
	db DBTX
}

// NewHandRepository creates a new HandRepository instance.
func NewHandRepository(db DBTX) *HandRepository {
	return &HandRepository{db: db}
}

const handColumns = `id, game_id, player_id, card_id, card_type, quantity, created_at`

func scanHandEntry(row pgx.Row) (*model.HandEntry, error) {
	var e model.HandEntry
	err := row.Scan(
		&e.ID,
		&e.GameID,
		&e.PlayerID,
		&e.CardID,
		&e.HandType,
		&e.Quantity,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *HandRepository) list(ctx context.Context, query string, args ...any) ([]*model.HandEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hand: %w", err)
	}
	defer rows.Close()

	var entries []*model.HandEntry
	for rows.Next() {
		e, err := scanHandEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hand entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hand: %w", err)
	}

	return entries, nil
}

// GetForUpdate retrieves a hand entry that still holds at least one copy and locks it.
// Returns ErrHandEntryNotFound if the entry is gone.
func (r *HandRepository) GetForUpdate(ctx context.Context, id int64) (*model.HandEntry, error) {
	query := `SELECT ` + handColumns + ` FROM player_cards WHERE id = $1 AND quantity > 0 FOR UPDATE`

	e, err := scanHandEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHandEntryNotFound
		}
		return nil, fmt.Errorf("failed to get hand entry: %w", err)
	}
	return e, nil
}

// Add puts one copy of a card into a hand under the given contextual type.
func (r *HandRepository) Add(ctx context.Context, gameID, playerID, cardID int64, handType model.HandType) (*model.HandEntry, error) {
	query := `
		INSERT INTO player_cards (game_id, player_id, card_id, card_type, quantity, created_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (game_id, player_id, card_id, card_type)
		DO UPDATE SET quantity = player_cards.quantity + 1
		RETURNING ` + handColumns

	e, err := scanHandEntry(r.db.QueryRow(ctx, query, gameID, playerID, cardID, handType))
	if err != nil {
		return nil, fmt.Errorf("failed to add card to hand: %w", err)
	}
	return e, nil
}

// RemoveOne takes one copy out of a hand entry and deletes the entry when it runs out.
// Returns the copies left.
func (r *HandRepository) RemoveOne(ctx context.Context, id int64) (int, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM player_cards WHERE id = $1 AND quantity = 1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to remove hand entry: %w", err)
	}
	if result.RowsAffected() > 0 {
		return 0, nil
	}

	var left int
	err = r.db.QueryRow(ctx,
		`UPDATE player_cards SET quantity = quantity - 1 WHERE id = $1 AND quantity > 1 RETURNING quantity`,
		id,
	).Scan(&left)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrHandEntryNotFound
		}
		return 0, fmt.Errorf("failed to decrement hand entry: %w", err)
	}
	return left, nil
}

// CountCard returns the copies of a card a player holds across every contextual type.
func (r *HandRepository) CountCard(ctx context.Context, gameID, playerID, cardID int64) (int, error) {
	const query = `
		SELECT COALESCE(SUM(quantity), 0) FROM player_cards
		WHERE game_id = $1 AND player_id = $2 AND card_id = $3
	`

	var n int
	if err := r.db.QueryRow(ctx, query, gameID, playerID, cardID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count hand card: %w", err)
	}
	return n, nil
}

// ListByType returns a player's hand entries of one type in the order they were acquired.
func (r *HandRepository) ListByType(ctx context.Context, gameID, playerID int64, handType model.HandType) ([]*model.HandEntry, error) {
	query := `SELECT ` + handColumns + ` FROM player_cards
		WHERE game_id = $1 AND player_id = $2 AND card_type = $3 AND quantity > 0
		ORDER BY created_at, id`
	return r.list(ctx, query, gameID, playerID, handType)
}

// ListByPlayer returns a player's whole hand in the order it was acquired.
func (r *HandRepository) ListByPlayer(ctx context.Context, gameID, playerID int64) ([]*model.HandEntry, error) {
	query := `SELECT ` + handColumns + ` FROM player_cards
		WHERE game_id = $1 AND player_id = $2 AND quantity > 0
		ORDER BY created_at, id`
	return r.list(ctx, query, gameID, playerID)
}

// GetByCard returns a player's entry for a card under one contextual type, or nil if none is held.
func (r *HandRepository) GetByCard(ctx context.Context, gameID, playerID, cardID int64, handType model.HandType) (*model.HandEntry, error) {
	query := `SELECT ` + handColumns + ` FROM player_cards
		WHERE game_id = $1 AND player_id = $2 AND card_id = $3 AND card_type = $4 AND quantity > 0
		FOR UPDATE`

	e, err := scanHandEntry(r.db.QueryRow(ctx, query, gameID, playerID, cardID, handType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get hand entry by card: %w", err)
	}
	return e, nil
}
