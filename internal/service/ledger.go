// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
)

// Ledger-related errors.
var (
	ErrPlayerNotInGame = errors.New("player does not belong to game")
	ErrGameNotReady    = errors.New("game needs exactly two players")
)

// Standings is the locked view of both players of a game for one unit of work.
// Scores are kept current as changes are applied through the ledger.
type Standings struct {
	GameID  int64
	Players []*model.Player
}

// Player returns the player with the given ID, or nil.
func (s *Standings) Player(id int64) *model.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other player of the game, or nil.
func (s *Standings) Opponent(id int64) *model.Player {
	for _, p := range s.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// Leader returns the ID of the player with the higher score, or 0 on a tie.
func (s *Standings) Leader() int64 {
	return leaderOf(s.Players)
}

func leaderOf(players []*model.Player) int64 {
	if len(players) != 2 {
		return 0
	}
	a, b := players[0], players[1]
	switch {
	case a.Score > b.Score:
		return a.ID
	case b.Score > a.Score:
		return b.ID
	}
	return 0
}

// LeadChange describes a change of the leading player caused by one score write.
type LeadChange struct {
	GameID         int64
	PreviousLeader int64 // 0 when the game was tied
	NewLeader      int64
	Players        []model.Player
}

// ScoreLedger is the single write path for scores. Every change writes the new score
// and a history row through the same store, so both commit or neither does.
type ScoreLedger struct{}

// NewScoreLedger creates a new ScoreLedger instance.
func NewScoreLedger() *ScoreLedger {
	return &ScoreLedger{}
}

// Snapshot locks both players of a game and returns their current scores.
func (l *ScoreLedger) Snapshot(ctx context.Context, s *repository.Store, gameID int64) (*Standings, error) {
	players, err := s.Players.ListByGameForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	if len(players) != 2 {
		return nil, ErrGameNotReady
	}
	return &Standings{GameID: gameID, Players: players}, nil
}

// ApplyScoreChange adds delta to a player's score and records the change.
// A zero delta writes nothing. The returned LeadChange is non-nil when the write moved
// the lead to a different player, judged against the scores as they were before the write.
func (l *ScoreLedger) ApplyScoreChange(ctx context.Context, s *repository.Store, st *Standings, playerID, delta, actingPlayerID int64) (*model.ScoreChange, *LeadChange, error) {
	player := st.Player(playerID)
	if player == nil {
		return nil, nil, ErrPlayerNotInGame
	}
	if delta == 0 {
		return nil, nil, nil
	}

	before := st.Leader()
	oldScore := player.Score
	newScore := oldScore + delta

	if err := s.Players.SetScore(ctx, playerID, newScore); err != nil {
		return nil, nil, fmt.Errorf("failed to write score: %w", err)
	}

	change, err := s.Scores.Create(ctx, &model.ScoreChange{
		GameID:         st.GameID,
		PlayerID:       playerID,
		ActingPlayerID: actingPlayerID,
		OldScore:       oldScore,
		NewScore:       newScore,
		Delta:          delta,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record score change: %w", err)
	}

	player.Score = newScore

	after := st.Leader()
	if after == 0 || after == before {
		return change, nil, nil
	}

	lead := &LeadChange{GameID: st.GameID, PreviousLeader: before, NewLeader: after}
	for _, p := range st.Players {
		lead.Players = append(lead.Players, *p)
	}
	return change, lead, nil
}
