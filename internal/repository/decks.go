package repository

import (
	"context"
	"fmt"

	"duel-game-bot/internal/model"
)

// DeckRepository handles per-player draw decks.
type DeckRepository struct {
	db DBTX
}

// NewDeckRepository creates a new DeckRepository instance.
func NewDeckRepository(db DBTX) *DeckRepository {
	return &DeckRepository{db: db}
}

// ListAvailable returns the deck entries of the given card types that still have copies,
// locking them for the rest of the transaction.
func (r *DeckRepository) ListAvailable(ctx context.Context, gameID, playerID int64, types []model.CardType) ([]*model.DeckEntry, error) {
	const query = `
		SELECT d.game_id, d.player_id, d.card_id, d.quantity
		FROM deck_cards d
		JOIN cards c ON c.id = d.card_id
		WHERE d.game_id = $1 AND d.player_id = $2 AND d.quantity > 0 AND c.type = ANY($3)
		ORDER BY d.card_id
		FOR UPDATE OF d
	`

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	rows, err := r.db.Query(ctx, query, gameID, playerID, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck: %w", err)
	}
	defer rows.Close()

	var entries []*model.DeckEntry
	for rows.Next() {
		var e model.DeckEntry
		if err := rows.Scan(&e.GameID, &e.PlayerID, &e.CardID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan deck entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck: %w", err)
	}

	return entries, nil
}

// Take removes one copy of a card from the deck.
// Returns false if no copy was left.
func (r *DeckRepository) Take(ctx context.Context, gameID, playerID, cardID int64) (bool, error) {
	const query = `
		UPDATE deck_cards SET quantity = quantity - 1
		WHERE game_id = $1 AND player_id = $2 AND card_id = $3 AND quantity > 0
	`

	result, err := r.db.Exec(ctx, query, gameID, playerID, cardID)
	if err != nil {
		return false, fmt.Errorf("failed to take deck card: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Return puts one copy of a card back into the deck.
func (r *DeckRepository) Return(ctx context.Context, gameID, playerID, cardID int64) error {
	const query = `
		INSERT INTO deck_cards (game_id, player_id, card_id, quantity)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (game_id, player_id, card_id)
		DO UPDATE SET quantity = deck_cards.quantity + 1
	`

	if _, err := r.db.Exec(ctx, query, gameID, playerID, cardID); err != nil {
		return fmt.Errorf("failed to return card to deck: %w", err)
	}
	return nil
}

// Set writes the exact quantity of a card in a deck.
func (r *DeckRepository) Set(ctx context.Context, e *model.DeckEntry) error {
	const query = `
		INSERT INTO deck_cards (game_id, player_id, card_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, player_id, card_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`

	if _, err := r.db.Exec(ctx, query, e.GameID, e.PlayerID, e.CardID, e.Quantity); err != nil {
		return fmt.Errorf("failed to set deck entry: %w", err)
	}
	return nil
}

// Quantity returns the copies of a card left in a deck.
func (r *DeckRepository) Quantity(ctx context.Context, gameID, playerID, cardID int64) (int, error) {
	const query = `
		SELECT COALESCE(SUM(quantity), 0) FROM deck_cards
		WHERE game_id = $1 AND player_id = $2 AND card_id = $3
	`

	var n int
	if err := r.db.QueryRow(ctx, query, gameID, playerID, cardID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to get deck quantity: %w", err)
	}
	return n, nil
}
