package engine

import (
	"fmt"

	"duel-game-bot/internal/model"
)

func (t *txn) winLoss(gameID, playerID, handCardID int64, outcome model.Outcome) error {
	player, opp, err := t.begin(gameID, playerID)
	if err != nil {
		return err
	}
	entry, c, err := t.handCard(gameID, playerID, handCardID)
	if err != nil {
		return err
	}
	if !c.WinLoss {
		return invalid(ErrNotWinLoss, "%s is not a win/loss card", c.Name)
	}

	winner, loser := player, opp
	if outcome == model.OutcomeLoss {
		winner, loser = opp, player
	}

	o := winLossOutcome(winLossInput{Winner: winner, Loser: loser, Entry: entry, Card: c})
	o.Messages = append(o.Messages, fmt.Sprintf("%s wins %s", winner.Name, c.Name))
	return t.apply(&o)
}
