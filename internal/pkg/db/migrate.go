package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Execer is the subset of pgxpool.Pool used by migrations.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "games and players",
		sql: `
			CREATE TABLE IF NOT EXISTS games (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				digital BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS players (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				gender VARCHAR(10) NOT NULL CHECK (gender IN ('female', 'male')),
				score BIGINT NOT NULL DEFAULT 0,
				telegram_id BIGINT UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_players_game ON players(game_id);
		`,
	},
	{
		name: "card catalog",
		sql: `
			CREATE TABLE IF NOT EXISTS cards (
				id BIGINT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				type VARCHAR(20) NOT NULL,
				reward BIGINT NOT NULL DEFAULT 0,
				for_her BOOLEAN NOT NULL DEFAULT FALSE,
				for_him BOOLEAN NOT NULL DEFAULT FALSE,
				serve_to_her BOOLEAN NOT NULL DEFAULT FALSE,
				serve_to_him BOOLEAN NOT NULL DEFAULT FALSE,
				challenge_modify BOOLEAN NOT NULL DEFAULT FALSE,
				opponent_challenge_modify BOOLEAN NOT NULL DEFAULT FALSE,
				snap_modify BOOLEAN NOT NULL DEFAULT FALSE,
				dare_modify BOOLEAN NOT NULL DEFAULT FALSE,
				spicy_modify BOOLEAN NOT NULL DEFAULT FALSE,
				veto_modify VARCHAR(20) NOT NULL DEFAULT 'none',
				score_modify VARCHAR(40) NOT NULL DEFAULT 'none',
				score_add BIGINT NOT NULL DEFAULT 0,
				score_subtract BIGINT NOT NULL DEFAULT 0,
				score_steal BIGINT NOT NULL DEFAULT 0,
				draw_chance INT NOT NULL DEFAULT 0,
				draw_snap_dare INT NOT NULL DEFAULT 0,
				draw_spicy INT NOT NULL DEFAULT 0,
				veto_subtract BIGINT NOT NULL DEFAULT 0,
				veto_steal BIGINT NOT NULL DEFAULT 0,
				veto_draw_chance INT NOT NULL DEFAULT 0,
				veto_draw_snap_dare INT NOT NULL DEFAULT 0,
				veto_draw_spicy INT NOT NULL DEFAULT 0,
				timer_minutes INT NOT NULL DEFAULT 0,
				repeat_count INT NOT NULL DEFAULT 0,
				win_loss BOOLEAN NOT NULL DEFAULT FALSE,
				double_it BOOLEAN NOT NULL DEFAULT FALSE,
				before_next_challenge BOOLEAN NOT NULL DEFAULT FALSE,
				rolls_dice BOOLEAN NOT NULL DEFAULT FALSE
			);
		`,
	},
	{
		name: "decks and hands",
		sql: `
			CREATE TABLE IF NOT EXISTS deck_cards (
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				card_id BIGINT NOT NULL REFERENCES cards(id),
				quantity INT NOT NULL CHECK (quantity >= 0),
				PRIMARY KEY (game_id, player_id, card_id)
			);
			CREATE TABLE IF NOT EXISTS player_cards (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				card_id BIGINT NOT NULL REFERENCES cards(id),
				card_type VARCHAR(20) NOT NULL,
				quantity INT NOT NULL CHECK (quantity > 0),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (game_id, player_id, card_id, card_type)
			);
			CREATE INDEX IF NOT EXISTS idx_player_cards_owner ON player_cards(game_id, player_id, card_type);
		`,
	},
	{
		name: "timers and active effects",
		sql: `
			CREATE TABLE IF NOT EXISTS timers (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				card_id BIGINT REFERENCES cards(id),
				description TEXT NOT NULL DEFAULT '',
				duration_minutes INT NOT NULL,
				start_at TIMESTAMPTZ NOT NULL,
				end_at TIMESTAMPTZ NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			);
			CREATE INDEX IF NOT EXISTS idx_timers_due ON timers(end_at) WHERE is_active;

			CREATE TABLE IF NOT EXISTS active_chance_effects (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				target_player_id BIGINT REFERENCES players(id) ON DELETE CASCADE,
				card_id BIGINT NOT NULL REFERENCES cards(id),
				effect_type VARCHAR(40) NOT NULL,
				effect_value VARCHAR(40) NOT NULL DEFAULT '',
				timer_id BIGINT REFERENCES timers(id) ON DELETE SET NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE UNIQUE INDEX IF NOT EXISTS uq_active_effect_target
				ON active_chance_effects(game_id, effect_type, COALESCE(target_player_id, player_id));
			CREATE INDEX IF NOT EXISTS idx_active_effects_timer ON active_chance_effects(timer_id);
		`,
	},
	{
		name: "score history",
		sql: `
			CREATE TABLE IF NOT EXISTS score_history (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				acting_player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				old_score BIGINT NOT NULL,
				new_score BIGINT NOT NULL,
				delta BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_score_history_player ON score_history(game_id, player_id, created_at DESC);
		`,
	},
}

// Migrate executes the schema migrations. Every statement is idempotent.
func Migrate(ctx context.Context, db Execer) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
