package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-game-bot/internal/model"
)

// GameRepository handles game persistence.
type GameRepository struct {
	db DBTX
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(db DBTX) *GameRepository {
	return &GameRepository{db: db}
}

// Create creates a new game.
func (r *GameRepository) Create(ctx context.Context, name string, digital bool) (*model.Game, error) {
	const query = `
		INSERT INTO games (name, digital, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, digital, created_at
	`

	var g model.Game
	err := r.db.QueryRow(ctx, query, name, digital).Scan(&g.ID, &g.Name, &g.Digital, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return &g, nil
}

// GetByID retrieves a game by ID.
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	const query = `SELECT id, name, digital, created_at FROM games WHERE id = $1`

	var g model.Game
	err := r.db.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.Digital, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &g, nil
}

// PlayerRepository handles player and score persistence.
type PlayerRepository struct {
	db DBTX
}

// NewPlayerRepository creates a new PlayerRepository instance.
func NewPlayerRepository(db DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, game_id, name, gender, score, telegram_id, created_at`

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var p model.Player
	err := row.Scan(
		&p.ID,
		&p.GameID,
		&p.Name,
		&p.Gender,
		&p.Score,
		&p.TelegramID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create adds a player to a game with a zero score.
func (r *PlayerRepository) Create(ctx context.Context, gameID int64, name string, gender model.Gender, telegramID *int64) (*model.Player, error) {
	query := `
		INSERT INTO players (game_id, name, gender, score, telegram_id, created_at)
		VALUES ($1, $2, $3, 0, $4, NOW())
		RETURNING ` + playerColumns

	p, err := scanPlayer(r.db.QueryRow(ctx, query, gameID, name, gender, telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return p, nil
}

// GetByID retrieves a player by ID.
// Returns ErrPlayerNotFound if the player does not exist.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// GetByTelegramID retrieves the player bound to a Telegram account.
func (r *PlayerRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE telegram_id = $1`

	p, err := scanPlayer(r.db.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player by telegram id: %w", err)
	}
	return p, nil
}

// ListByGame returns the players of a game ordered by ID.
func (r *PlayerRepository) ListByGame(ctx context.Context, gameID int64) ([]*model.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE game_id = $1 ORDER BY id`, gameID)
}

// ListByGameForUpdate returns both players of a game ordered by ID and locks their rows
// for the rest of the transaction.
func (r *PlayerRepository) ListByGameForUpdate(ctx context.Context, gameID int64) ([]*model.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE game_id = $1 ORDER BY id FOR UPDATE`, gameID)
}

func (r *PlayerRepository) list(ctx context.Context, query string, gameID int64) ([]*model.Player, error) {
	rows, err := r.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// SetScore sets a player's score to an exact value.
func (r *PlayerRepository) SetScore(ctx context.Context, id int64, score int64) error {
	const query = `UPDATE players SET score = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, score)
	if err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
