package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rmarchetti/examclock/internal/attempt"
	"github.com/rmarchetti/examclock/internal/countdown"
	"github.com/rmarchetti/examclock/internal/timerstore"
)

// AttemptService defines what the guard needs from the remote attempt
// service. StartOrGetAttempt must be idempotent: calling it again for an
// already-started attempt returns the existing one.
type AttemptService interface {
	StartOrGetAttempt(ctx context.Context, examID uuid.UUID) (*attempt.Attempt, error)
}

// Route tells the caller which screen to render on exam entry.
type Route string

const (
	// RouteStartScreen renders the ready-to-start screen; the countdown is
	// created when the student confirms.
	RouteStartScreen Route = "start_screen"
	// RouteResume skips the start screen and resumes the countdown from
	// the stored start instant.
	RouteResume Route = "resume"
	// RouteExpired surfaces the terminal state without showing the start
	// screen or creating a new timer record.
	RouteExpired Route = "expired"
	// RouteClosed sends the student to the results/closed view.
	RouteClosed Route = "closed"
)

// Decision is the outcome of one exam-page entry.
type Decision struct {
	Route   Route
	Attempt *attempt.Attempt

	// StartedAt is set when a timer record exists for the attempt.
	StartedAt *time.Time

	// Snapshot is the countdown state at decision time, set for
	// RouteResume and RouteExpired.
	Snapshot *countdown.Snapshot
}

// Clock narrows clockwork.Clock to what the guard needs.
type Clock interface {
	Now() time.Time
}

// Guard decides, once per exam-page entry, whether to show the start
// screen or jump straight into an already-running session. Reaching an
// in-progress attempt with no timer record only happens on the very
// first entry, which is what stops a reload from refreshing the clock.
type Guard struct {
	attempts AttemptService
	store    timerstore.Store
	clock    Clock
}

// NewGuard creates a session resumption guard.
func NewGuard(attempts AttemptService, store timerstore.Store, clock Clock) *Guard {
	return &Guard{
		attempts: attempts,
		store:    store,
		clock:    clock,
	}
}

// Enter runs the resumption decision for an exam. An unreachable attempt
// service surfaces as a load failure; retry policy belongs to the
// network layer underneath.
func (g *Guard) Enter(ctx context.Context, examID uuid.UUID) (*Decision, error) {
	att, err := g.attempts.StartOrGetAttempt(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt for exam %s: %w", examID, err)
	}

	if att.Status.Terminal() {
		log.Info().
			Str("attempt_id", att.ID.String()).
			Str("status", string(att.Status)).
			Msg("attempt already closed, routing to results")
		return &Decision{Route: RouteClosed, Attempt: att}, nil
	}

	if att.Status == attempt.StatusNotStarted {
		return &Decision{Route: RouteStartScreen, Attempt: att}, nil
	}

	// IN_PROGRESS: the presence and age of the timer record decide.
	start, ok, err := g.store.GetStart(ctx, att.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read timer record: %w", err)
	}
	if !ok {
		return &Decision{Route: RouteStartScreen, Attempt: att}, nil
	}

	snap := remainingAt(att.TotalTimeSec, start, g.clock.Now())
	if snap.Expired() {
		log.Info().
			Str("attempt_id", att.ID.String()).
			Msg("stored countdown already exhausted, surfacing terminal state")
		return &Decision{Route: RouteExpired, Attempt: att, StartedAt: &start, Snapshot: &snap}, nil
	}

	log.Info().
		Str("attempt_id", att.ID.String()).
		Int("remaining_sec", snap.RemainingSec).
		Msg("resuming countdown in place")
	return &Decision{Route: RouteResume, Attempt: att, StartedAt: &start, Snapshot: &snap}, nil
}

// Begin records the countdown start for an attempt when the student
// confirms the start screen. Idempotent: a second call observes and
// reuses the first call's start instant rather than resetting the clock.
func (g *Guard) Begin(ctx context.Context, attemptID uuid.UUID) (time.Time, error) {
	start, err := g.store.SetStartIfAbsent(ctx, attemptID, g.clock.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to record countdown start: %w", err)
	}
	return start, nil
}

// remainingAt computes a clamped snapshot for a decision, without
// spinning up an engine.
func remainingAt(totalSec int, start, now time.Time) countdown.Snapshot {
	remaining := totalSec - int(now.Sub(start)/time.Second)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > totalSec {
		remaining = totalSec
	}
	return countdown.Snapshot{
		RemainingSec: remaining,
		Phase:        countdown.PhaseFor(remaining),
		Display:      countdown.FormatHHMMSS(remaining),
	}
}
