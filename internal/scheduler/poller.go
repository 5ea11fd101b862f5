package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/engine"
)

// Expirer fires one timer. It must tolerate duplicate and late calls.
type Expirer interface {
	ExpireTimer(ctx context.Context, timerID int64) (*engine.Result, error)
}

// DueLister finds active timers whose end time has passed.
type DueLister interface {
	ListDue(ctx context.Context, before time.Time, limit int) ([]int64, error)
}

// Config tunes a Poller.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	SweepGrace time.Duration
	RetryDelay time.Duration
}

// Poller claims due jobs from the queue, sweeps the database for overdue timers
// and fires each through the Expirer.
type Poller struct {
	queue   *RedisQueue
	timers  DueLister
	expirer Expirer
	cfg     Config
	now     func() time.Time
	log     zerolog.Logger
}

// NewPoller creates a Poller with its own consumer ID.
func NewPoller(queue *RedisQueue, timers DueLister, expirer Expirer, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 15 * time.Second
	}
	return &Poller{
		queue:   queue,
		timers:  timers,
		expirer: expirer,
		cfg:     cfg,
		now:     time.Now,
		log:     log.With().Str("consumer_id", uuid.NewString()).Logger(),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().
		Dur("interval", p.cfg.Interval).
		Int("batch_size", p.cfg.BatchSize).
		Msg("Timer poller started")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Timer poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one polling round and returns the number of timers fired successfully.
func (p *Poller) Tick(ctx context.Context) int {
	now := p.now()

	claimed, err := p.queue.Claim(ctx, now, p.cfg.BatchSize)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to claim queued timers")
	}

	var swept []int64
	if p.timers != nil {
		swept, err = p.timers.ListDue(ctx, now.Add(-p.cfg.SweepGrace), p.cfg.BatchSize)
		if err != nil {
			p.log.Warn().Err(err).Msg("Failed to sweep overdue timers")
		}
	}

	seen := make(map[int64]bool, len(claimed)+len(swept))
	fired := 0
	for _, id := range claimed {
		seen[id] = true
		if p.fire(ctx, id, now) {
			fired++
		}
	}
	for _, id := range swept {
		if seen[id] {
			continue
		}
		seen[id] = true
		p.log.Info().Int64("timer_id", id).Msg("Sweeping overdue timer")
		if p.fire(ctx, id, now) {
			fired++
			if err := p.queue.Cancel(ctx, id); err != nil {
				p.log.Warn().Err(err).Int64("timer_id", id).Msg("Failed to drop swept timer job")
			}
		}
	}
	return fired
}

// fire expires one timer and re-queues it after RetryDelay when that fails.
func (p *Poller) fire(ctx context.Context, timerID int64, now time.Time) bool {
	res, err := p.expirer.ExpireTimer(ctx, timerID)
	if err != nil {
		p.log.Error().Err(err).Int64("timer_id", timerID).Msg("Failed to expire timer")
		if err := p.queue.Schedule(ctx, timerID, now.Add(p.cfg.RetryDelay)); err != nil {
			p.log.Warn().Err(err).Int64("timer_id", timerID).Msg("Failed to re-queue timer")
		}
		return false
	}

	ev := p.log.Debug().Int64("timer_id", timerID)
	if res != nil {
		ev = ev.Int("score_changes", len(res.ScoreChanges)).Strs("messages", res.Messages)
	}
	ev.Msg("Timer fired")
	return true
}
