package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Clock is the interface the engine uses for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Config holds everything an Engine needs to run one countdown.
type Config struct {
	AttemptID uuid.UUID
	TotalSec  int
	Start     time.Time
	Clock     Clock

	// OnExpire fires exactly once per engine instance, no matter how many
	// ticks or reconciliations reach zero.
	OnExpire func()

	// OnTick receives a snapshot on every tick while the engine runs.
	OnTick func(Snapshot)
}

// Engine drives a single attempt's countdown. Remaining time is always
// recomputed by subtracting elapsed wall-clock time from the total, never
// by decrementing an in-memory counter, so a suspended or throttled tick
// loop cannot under-count elapsed time.
type Engine struct {
	attemptID uuid.UUID
	totalSec  int
	start     time.Time
	clock     Clock
	onExpire  func()
	onTick    func(Snapshot)

	mu           sync.Mutex
	minRemaining int
	expired      bool

	expireOnce sync.Once
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// NewEngine creates an engine and evaluates it immediately. If the stored
// start already puts the attempt past its total time, the engine enters
// the expired phase and invokes OnExpire synchronously, before any tick.
func NewEngine(cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e := &Engine{
		attemptID:    cfg.AttemptID,
		totalSec:     cfg.TotalSec,
		start:        cfg.Start,
		clock:        clock,
		onExpire:     cfg.OnExpire,
		onTick:       cfg.OnTick,
		minRemaining: cfg.TotalSec,
		stopCh:       make(chan struct{}),
	}

	snap := e.observe(e.start)
	log.Debug().
		Str("attempt_id", e.attemptID.String()).
		Int("total_sec", e.totalSec).
		Int("remaining_sec", snap.RemainingSec).
		Str("phase", string(snap.Phase)).
		Msg("countdown engine initialized")

	return e
}

// Snapshot recomputes the current countdown state from the wall clock.
func (e *Engine) Snapshot() Snapshot {
	return e.observe(e.start)
}

// Reconcile recomputes state from an authoritative start timestamp read
// back from the duration store, bypassing whatever the last tick
// produced. If the recomputation hits zero it forces the expired
// transition under the same one-shot guard as the tick path.
func (e *Engine) Reconcile(start time.Time) Snapshot {
	return e.observe(start)
}

// Run ticks the engine once per second until it expires, the context is
// cancelled, or Stop is called. Stopping does not clear the underlying
// timer record.
func (e *Engine) Run(ctx context.Context) {
	if snap := e.Snapshot(); snap.Expired() {
		return
	}

	ticker := e.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.Chan():
			snap := e.observe(e.start)
			if e.onTick != nil {
				e.onTick(snap)
			}
			if snap.Expired() {
				return
			}
		}
	}
}

// Stop cancels the tick loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
}

// observe recomputes remaining time from the given start instant,
// clamps it to [0, total], and enforces the two monotonic invariants:
// remaining never increases for this engine instance, and expired never
// reverts once reached.
func (e *Engine) observe(start time.Time) Snapshot {
	e.mu.Lock()
	elapsed := int(e.clock.Now().Sub(start) / time.Second)
	remaining := e.totalSec - elapsed
	if remaining < 0 {
		remaining = 0
	}
	if remaining > e.totalSec {
		remaining = e.totalSec
	}
	if remaining > e.minRemaining {
		remaining = e.minRemaining
	}
	e.minRemaining = remaining
	if remaining == 0 {
		e.expired = true
	}
	if e.expired {
		remaining = 0
	}
	expired := e.expired
	e.mu.Unlock()

	if expired {
		e.expireOnce.Do(func() {
			log.Info().
				Str("attempt_id", e.attemptID.String()).
				Msg("countdown expired")
			if e.onExpire != nil {
				e.onExpire()
			}
		})
	}

	return Snapshot{
		RemainingSec: remaining,
		Phase:        PhaseFor(remaining),
		Display:      FormatHHMMSS(remaining),
	}
}
