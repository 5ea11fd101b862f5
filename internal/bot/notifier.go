package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/service"
)

// Sender is the part of *tele.Bot the notifier needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// PlayerLookup resolves the owner of a timer.
type PlayerLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Player, error)
}

// TelegramNotifier sends game notifications to the players' private chats.
// Players without a Telegram account are skipped.
type TelegramNotifier struct {
	sender  Sender
	players PlayerLookup
}

// NewTelegramNotifier creates a new TelegramNotifier.
func NewTelegramNotifier(sender Sender, players PlayerLookup) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, players: players}
}

// LeadChanged tells both players who leads now.
func (n *TelegramNotifier) LeadChanged(_ context.Context, change *service.LeadChange) error {
	var (
		leader string
		scores []string
	)
	for _, p := range change.Players {
		if p.ID == change.NewLeader {
			leader = p.Name
		}
		scores = append(scores, fmt.Sprintf("%s %d", p.Name, p.Score))
	}

	msg := "🤝 The game is tied"
	if leader != "" {
		msg = fmt.Sprintf("👑 %s takes the lead", leader)
	}
	msg += "\n" + strings.Join(scores, " : ")

	var errs []error
	for _, p := range change.Players {
		if err := n.send(p.TelegramID, msg); err != nil {
			errs = append(errs, fmt.Errorf("player %d: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// TimerExpired tells the timer's owner that it fired.
func (n *TelegramNotifier) TimerExpired(ctx context.Context, timer *model.Timer) error {
	p, err := n.players.GetByID(ctx, timer.PlayerID)
	if err != nil {
		return fmt.Errorf("failed to look up timer owner: %w", err)
	}

	msg := "⏰ Time is up"
	if timer.Description != "" {
		msg += ": " + timer.Description
	}
	return n.send(p.TelegramID, msg)
}

func (n *TelegramNotifier) send(telegramID *int64, msg string) error {
	if telegramID == nil {
		return nil
	}
	_, err := n.sender.Send(tele.ChatID(*telegramID), msg)
	return err
}
