package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/testdb"
	"duel-game-bot/internal/repository"
)

func seedGame(t *testing.T, store *repository.Store) (*model.Game, *model.Player, *model.Player) {
	ctx := context.Background()
	game, err := store.Games.Create(ctx, "ledger", true)
	require.NoError(t, err)
	her, err := store.Players.Create(ctx, game.ID, "Ann", model.GenderFemale, nil)
	require.NoError(t, err)
	him, err := store.Players.Create(ctx, game.ID, "Bob", model.GenderMale, nil)
	require.NoError(t, err)
	return game, her, him
}

func TestScoreLedger_ApplyScoreChange(t *testing.T) {
	pool := testdb.Postgres(t)
	ctx := context.Background()
	ledger := NewScoreLedger()
	game, her, him := seedGame(t, repository.NewStore(pool))

	var leads []*LeadChange
	err := repository.InTx(ctx, pool, func(s *repository.Store) error {
		st, err := ledger.Snapshot(ctx, s, game.ID)
		if err != nil {
			return err
		}

		change, lead, err := ledger.ApplyScoreChange(ctx, s, st, her.ID, 3, her.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(0), change.OldScore)
		assert.Equal(t, int64(3), change.NewScore)
		leads = append(leads, lead)

		// Him catching up to a tie is not a lead change.
		_, lead, err = ledger.ApplyScoreChange(ctx, s, st, him.ID, 3, her.ID)
		if err != nil {
			return err
		}
		leads = append(leads, lead)

		_, lead, err = ledger.ApplyScoreChange(ctx, s, st, him.ID, 1, him.ID)
		if err != nil {
			return err
		}
		leads = append(leads, lead)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, leads, 3)
	require.NotNil(t, leads[0])
	assert.Equal(t, int64(0), leads[0].PreviousLeader)
	assert.Equal(t, her.ID, leads[0].NewLeader)
	assert.Nil(t, leads[1])
	require.NotNil(t, leads[2])
	assert.Equal(t, him.ID, leads[2].NewLeader)

	store := repository.NewStore(pool)
	p, err := store.Players.GetByID(ctx, him.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Score)

	history, err := store.Scores.ListByPlayer(ctx, game.ID, him.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(1), history[0].Delta)
	assert.Equal(t, int64(3), history[0].OldScore)
	assert.Equal(t, her.ID, history[1].ActingPlayerID)
}

func TestScoreLedger_ZeroDeltaWritesNothing(t *testing.T) {
	pool := testdb.Postgres(t)
	ctx := context.Background()
	ledger := NewScoreLedger()
	game, her, _ := seedGame(t, repository.NewStore(pool))

	err := repository.InTx(ctx, pool, func(s *repository.Store) error {
		st, err := ledger.Snapshot(ctx, s, game.ID)
		if err != nil {
			return err
		}
		change, lead, err := ledger.ApplyScoreChange(ctx, s, st, her.ID, 0, her.ID)
		assert.Nil(t, change)
		assert.Nil(t, lead)
		return err
	})
	require.NoError(t, err)

	n, err := repository.NewStore(pool).Scores.CountByGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScoreLedger_RejectsForeignPlayer(t *testing.T) {
	pool := testdb.Postgres(t)
	ctx := context.Background()
	ledger := NewScoreLedger()
	game, _, _ := seedGame(t, repository.NewStore(pool))

	err := repository.InTx(ctx, pool, func(s *repository.Store) error {
		st, err := ledger.Snapshot(ctx, s, game.ID)
		if err != nil {
			return err
		}
		_, _, err = ledger.ApplyScoreChange(ctx, s, st, 99999, 5, 99999)
		return err
	})
	assert.ErrorIs(t, err, ErrPlayerNotInGame)
}

func TestScoreLedger_SnapshotNeedsTwoPlayers(t *testing.T) {
	pool := testdb.Postgres(t)
	ctx := context.Background()
	store := repository.NewStore(pool)

	game, err := store.Games.Create(ctx, "solo", true)
	require.NoError(t, err)
	_, err = store.Players.Create(ctx, game.ID, "Ann", model.GenderFemale, nil)
	require.NoError(t, err)

	err = repository.InTx(ctx, pool, func(s *repository.Store) error {
		_, err := NewScoreLedger().Snapshot(ctx, s, game.ID)
		return err
	})
	assert.ErrorIs(t, err, ErrGameNotReady)
}
