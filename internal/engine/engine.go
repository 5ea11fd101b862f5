// Package engine resolves card actions: completing, vetoing and reporting win/loss cards,
// arming and chaining chance-card modifiers, and firing timers.
//
// Every entry point evaluates pure rules into an Outcome and applies it inside one
// serializable transaction. Storage conflicts retry the whole operation; validation
// failures abort it without writing anything. Scheduling and notifications run only
// after commit.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/notify"
	"duel-game-bot/internal/pkg/retry"
	"duel-game-bot/internal/repository"
	"duel-game-bot/internal/service"
)

// DefaultSnapDareVetoPenalty is the fixed point loss for vetoing a snap or dare card.
const DefaultSnapDareVetoPenalty = 3

// Scheduler delivers timer expiries. Implementations are at-least-once; the engine
// tolerates duplicate and late deliveries.
type Scheduler interface {
	Schedule(ctx context.Context, timerID int64, at time.Time) error
	Cancel(ctx context.Context, timerID int64) error
}

type noopScheduler struct{}

func (noopScheduler) Schedule(context.Context, int64, time.Time) error { return nil }
func (noopScheduler) Cancel(context.Context, int64) error              { return nil }

// Engine is the effect resolution engine.
type Engine struct {
	pool      *pgxpool.Pool
	ledger    *service.ScoreLedger
	scheduler Scheduler
	notifier  notify.Notifier
	policy    retry.Policy
	penalty   int64
	now       func() time.Time
	pick      func(n int) int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the timer scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithNotifier sets the post-commit notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithRetryPolicy sets the conflict retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithSnapDareVetoPenalty sets the fixed snap/dare veto penalty.
func WithSnapDareVetoPenalty(n int64) Option {
	return func(e *Engine) { e.penalty = n }
}

// WithClock sets the time source used for timers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPicker sets the random source for draws. pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(e *Engine) { e.pick = pick }
}

// New creates an Engine.
func New(pool *pgxpool.Pool, ledger *service.ScoreLedger, opts ...Option) *Engine {
	e := &Engine{
		pool:      pool,
		ledger:    ledger,
		scheduler: noopScheduler{},
		notifier:  notify.LogNotifier{},
		policy:    retry.DefaultPolicy,
		penalty:   DefaultSnapDareVetoPenalty,
		now:       time.Now,
		pick:      rand.Intn,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run executes fn as one retried unit of work and flushes its side effects after commit.
func (e *Engine) run(ctx context.Context, op string, fields map[string]int64, fn func(t *txn) error) (*Result, error) {
	t, err := retry.Do(ctx, e.policy, func(ctx context.Context, attempt int) retry.Result[*txn] {
		lc := log.With().Str("op", op).Str("op_id", uuid.NewString()).Int("attempt", attempt)
		for k, v := range fields {
			lc = lc.Int64(k, v)
		}
		logger := lc.Logger()

		var t *txn
		err := repository.InTx(ctx, e.pool, func(s *repository.Store) error {
			t = newTxn(ctx, e, s, logger)
			return fn(t)
		})

		switch {
		case err == nil:
			logger.Debug().Msg("Operation committed")
			return retry.Ok(t)
		case repository.IsConflict(err):
			logger.Warn().Err(err).Msg("Storage conflict, retrying")
			return retry.Again[*txn](err)
		case IsValidation(err):
			logger.Debug().Err(err).Msg("Operation rejected")
			return retry.Fatal[*txn](err)
		default:
			logger.Error().Err(err).Msg("Operation failed")
			return retry.Fatal[*txn](err)
		}
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			log.Error().Err(err).Str("op", op).Msg("Retries exhausted")
		}
		return nil, err
	}

	t.flush(ctx)
	return t.res, nil
}

// CompleteCard completes one card from a player's hand.
func (e *Engine) CompleteCard(ctx context.Context, gameID, playerID, handCardID int64) (*Result, error) {
	fields := map[string]int64{"game_id": gameID, "player_id": playerID, "hand_card_id": handCardID}
	return e.run(ctx, "complete_hand_card", fields, func(t *txn) error {
		return t.complete(gameID, playerID, handCardID)
	})
}

// VetoCard declines one card from a player's hand and applies its penalties.
func (e *Engine) VetoCard(ctx context.Context, gameID, playerID, handCardID int64) (*Result, error) {
	fields := map[string]int64{"game_id": gameID, "player_id": playerID, "hand_card_id": handCardID}
	return e.run(ctx, "veto_hand_card", fields, func(t *txn) error {
		return t.veto(gameID, playerID, handCardID)
	})
}

// WinLossCard settles a win/loss card with the reported outcome.
func (e *Engine) WinLossCard(ctx context.Context, gameID, playerID, handCardID int64, outcome model.Outcome) (*Result, error) {
	if outcome != model.OutcomeWin && outcome != model.OutcomeLoss {
		return nil, invalid(ErrInvalidOutcome, "outcome must be %q or %q, got %q", model.OutcomeWin, model.OutcomeLoss, outcome)
	}
	fields := map[string]int64{"game_id": gameID, "player_id": playerID, "hand_card_id": handCardID}
	return e.run(ctx, "win_loss_hand_card", fields, func(t *txn) error {
		return t.winLoss(gameID, playerID, handCardID, outcome)
	})
}

// DrawCard draws one card of the given type from the player's deck into the player's hand.
func (e *Engine) DrawCard(ctx context.Context, gameID, playerID int64, cardType model.CardType) (*Result, error) {
	fields := map[string]int64{"game_id": gameID, "player_id": playerID}
	return e.run(ctx, "manual_draw", fields, func(t *txn) error {
		return t.manualDraw(gameID, playerID, cardType)
	})
}

// AdjustScore changes a score directly through the ledger.
func (e *Engine) AdjustScore(ctx context.Context, gameID, playerID, delta, actingPlayerID int64) (*Result, error) {
	fields := map[string]int64{"game_id": gameID, "player_id": playerID, "delta": delta}
	return e.run(ctx, "adjust_score", fields, func(t *txn) error {
		if _, _, err := t.begin(gameID, playerID); err != nil {
			return err
		}
		if t.st.Player(actingPlayerID) == nil {
			return invalid(ErrPlayerNotFound, "player %d is not in game %d", actingPlayerID, gameID)
		}
		t.actor = actingPlayerID
		var d deltas
		d.add(playerID, delta)
		return t.applyDeltas(d)
	})
}

// ExpireTimer fires a timer. Firing an inactive or missing timer is a no-op.
func (e *Engine) ExpireTimer(ctx context.Context, timerID int64) (*Result, error) {
	fields := map[string]int64{"timer_id": timerID}
	return e.run(ctx, "expire_timer", fields, func(t *txn) error {
		return t.expire(timerID)
	})
}
