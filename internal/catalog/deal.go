package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
)

var (
	// ErrGameFull is returned when a third player tries to join a game.
	ErrGameFull = errors.New("game already has two players")
	// ErrSeatTaken is returned when the second player has the same gender as the first.
	ErrSeatTaken = errors.New("a player of that gender is already seated")
)

// Seat describes a player joining a game.
type Seat struct {
	Name       string
	Gender     model.Gender
	TelegramID *int64
}

// Dealable reports whether a card belongs in the deck of a player of the given gender.
// A serve card sits in the deck of the player who can serve it to the opponent.
func Dealable(c *model.Card, g model.Gender) bool {
	her := g == model.GenderFemale
	switch c.Type {
	case model.CardServe:
		if her {
			return c.ServeToHim
		}
		return c.ServeToHer
	case model.CardSnap:
		return her && c.ForHer
	case model.CardDare:
		return !her && c.ForHim
	}
	if her {
		return c.ForHer
	}
	return c.ForHim
}

// DealDeck fills a player's draw deck with every eligible catalog card.
func DealDeck(ctx context.Context, s *repository.Store, p *model.Player) (int, error) {
	dealt := 0
	for _, e := range All() {
		if !Dealable(&e.Card, p.Gender) || e.Copies <= 0 {
			continue
		}
		err := s.Decks.Set(ctx, &model.DeckEntry{
			GameID:   p.GameID,
			PlayerID: p.ID,
			CardID:   e.Card.ID,
			Quantity: e.Copies,
		})
		if err != nil {
			return dealt, fmt.Errorf("failed to deal %s: %w", e.Card.Name, err)
		}
		dealt += e.Copies
	}
	return dealt, nil
}

// NewGame creates a game with its first player and deals that player's deck.
func NewGame(ctx context.Context, s *repository.Store, name string, first Seat) (*model.Game, *model.Player, error) {
	game, err := s.Games.Create(ctx, name, true)
	if err != nil {
		return nil, nil, err
	}
	p, err := seat(ctx, s, game.ID, first)
	if err != nil {
		return nil, nil, err
	}
	return game, p, nil
}

// Join seats the second player of a game and deals that player's deck.
func Join(ctx context.Context, s *repository.Store, gameID int64, second Seat) (*model.Player, error) {
	if _, err := s.Games.GetByID(ctx, gameID); err != nil {
		return nil, err
	}
	players, err := s.Players.ListByGameForUpdate(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(players) >= 2 {
		return nil, ErrGameFull
	}
	for _, p := range players {
		if p.Gender == second.Gender {
			return nil, ErrSeatTaken
		}
	}
	return seat(ctx, s, gameID, second)
}

func seat(ctx context.Context, s *repository.Store, gameID int64, st Seat) (*model.Player, error) {
	p, err := s.Players.Create(ctx, gameID, st.Name, st.Gender, st.TelegramID)
	if err != nil {
		return nil, err
	}
	n, err := DealDeck(ctx, s, p)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int64("game_id", gameID).
		Int64("player_id", p.ID).
		Str("gender", string(p.Gender)).
		Int("cards", n).
		Msg("Player seated")
	return p, nil
}
