package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmarchetti/examclock/internal/attempt"
	"github.com/rmarchetti/examclock/internal/countdown"
	"github.com/rmarchetti/examclock/internal/timerstore"
)

type fakeAttemptService struct {
	attempt *attempt.Attempt
	err     error
	calls   int
}

func (f *fakeAttemptService) StartOrGetAttempt(_ context.Context, _ uuid.UUID) (*attempt.Attempt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.attempt, nil
}

func newTestGuard(att *attempt.Attempt, clock clockwork.Clock) (*Guard, *fakeAttemptService, timerstore.Store) {
	svc := &fakeAttemptService{attempt: att}
	store := timerstore.NewMemoryStore()
	return NewGuard(svc, store, clock), svc, store
}

func TestEnterNotStartedShowsStartScreen(t *testing.T) {
	clock := clockwork.NewFakeClock()
	guard, _, _ := newTestGuard(&attempt.Attempt{
		ID:           uuid.New(),
		TotalTimeSec: 600,
		Status:       attempt.StatusNotStarted,
	}, clock)

	decision, err := guard.Enter(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, RouteStartScreen, decision.Route)
	assert.Nil(t, decision.StartedAt)
}

func TestEnterInProgressWithoutRecordShowsStartScreen(t *testing.T) {
	clock := clockwork.NewFakeClock()
	guard, _, _ := newTestGuard(&attempt.Attempt{
		ID:           uuid.New(),
		TotalTimeSec: 600,
		Status:       attempt.StatusInProgress,
	}, clock)

	decision, err := guard.Enter(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, RouteStartScreen, decision.Route)
}

func TestEnterInProgressWithRecordResumes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	att := &attempt.Attempt{
		ID:           uuid.New(),
		TotalTimeSec: 600,
		Status:       attempt.StatusInProgress,
	}
	guard, _, store := newTestGuard(att, clock)

	_, err := store.SetStartIfAbsent(context.Background(), att.ID, clock.Now().Add(-100*time.Second))
	require.NoError(t, err)

	decision, err := guard.Enter(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, RouteResume, decision.Route)
	require.NotNil(t, decision.Snapshot)
	assert.Equal(t, 500, decision.Snapshot.RemainingSec)
}

func TestEnterInProgressWithExhaustedRecordIsExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	att := &attempt.Attempt{
		ID:           uuid.New(),
		TotalTimeSec: 60,
		Status:       attempt.StatusInProgress,
	}
	guard, _, store := newTestGuard(att, clock)

	_, err := store.SetStartIfAbsent(context.Background(), att.ID, clock.Now().Add(-120*time.Second))
	require.NoError(t, err)

	decision, err := guard.Enter(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, RouteExpired, decision.Route)
	require.NotNil(t, decision.Snapshot)
	assert.Equal(t, 0, decision.Snapshot.RemainingSec)
	assert.Equal(t, countdown.PhaseExpired, decision.Snapshot.Phase)

	// Surfacing the terminal state must not write a fresh record.
	start, ok, err := store.GetStart(context.Background(), att.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, start.Equal(clock.Now().Add(-120*time.Second)))
}

func TestEnterTerminalStatusRoutesToClosed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	for _, status := range []attempt.Status{attempt.StatusSubmitted, attempt.StatusExpired} {
		guard, _, _ := newTestGuard(&attempt.Attempt{
			ID:           uuid.New(),
			TotalTimeSec: 600,
			Status:       status,
		}, clock)

		decision, err := guard.Enter(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, RouteClosed, decision.Route, "status=%s", status)
	}
}

func TestEnterSurfacesServiceFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := &fakeAttemptService{err: errors.New("connection refused")}
	guard := NewGuard(svc, timerstore.NewMemoryStore(), clock)

	_, err := guard.Enter(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 1, svc.calls)
}

func TestBeginIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	att := &attempt.Attempt{
		ID:           uuid.New(),
		TotalTimeSec: 600,
		Status:       attempt.StatusInProgress,
	}
	guard, _, _ := newTestGuard(att, clock)

	first, err := guard.Begin(context.Background(), att.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	second, err := guard.Begin(context.Background(), att.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(second), "re-entry must not reset the clock")
}

func TestReloadAfterConfirmedStartResumes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	att := &attempt.Attempt{
		ID:           uuid.New(),
		TotalTimeSec: 600,
		Status:       attempt.StatusInProgress,
	}
	guard, _, _ := newTestGuard(att, clock)

	// First entry: in progress, no record yet.
	decision, err := guard.Enter(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, RouteStartScreen, decision.Route)

	_, err = guard.Begin(context.Background(), att.ID)
	require.NoError(t, err)

	// Reload: the confirmed start now routes straight past the start
	// screen.
	clock.Advance(5 * time.Second)
	decision, err = guard.Enter(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, RouteResume, decision.Route)
	assert.Equal(t, 595, decision.Snapshot.RemainingSec)
}
