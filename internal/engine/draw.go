package engine

import (
	"duel-game-bot/internal/model"
)

func (t *txn) manualDraw(gameID, playerID int64, cardType model.CardType) error {
	player, _, err := t.begin(gameID, playerID)
	if err != nil {
		return err
	}

	switch cardType {
	case model.CardServe, model.CardChance, model.CardSnap, model.CardDare, model.CardSpicy:
	default:
		return invalid(ErrNotEligible, "unknown card type %q", cardType)
	}
	if !eligible(player.Gender, cardType) {
		return invalid(ErrNotEligible, "%s cannot draw %s cards", player.Name, cardType)
	}

	_, err = t.draw(player, cardType, 1, false)
	return err
}
