package countdown

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StartReader is the slice of the duration store the reconciler needs.
type StartReader interface {
	GetStart(ctx context.Context, attemptID uuid.UUID) (time.Time, bool, error)
}

// Reconciler re-derives countdown state from the duration store whenever
// the exam view regains foreground focus. A backgrounded view may have
// had its tick source paused or throttled for an unknown interval; only
// a recomputation from the persisted start timestamp is trustworthy
// afterwards.
type Reconciler struct {
	store     StartReader
	engine    *Engine
	attemptID uuid.UUID
}

// NewReconciler wires a reconciler to one engine instance.
func NewReconciler(store StartReader, engine *Engine, attemptID uuid.UUID) *Reconciler {
	return &Reconciler{
		store:     store,
		engine:    engine,
		attemptID: attemptID,
	}
}

// OnForeground handles a foreground transition. It reads the persisted
// start instant and recomputes state from it, forcing the expired
// transition (and the one-shot OnExpire) if the hidden interval consumed
// the rest of the budget. A missing or unreadable record falls back to
// the engine's own start; the countdown keeps running rather than fail.
func (r *Reconciler) OnForeground(ctx context.Context) Snapshot {
	start, ok, err := r.store.GetStart(ctx, r.attemptID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("attempt_id", r.attemptID.String()).
			Msg("duration store read failed during reconciliation")
		return r.engine.Snapshot()
	}
	if !ok {
		log.Warn().
			Str("attempt_id", r.attemptID.String()).
			Msg("no timer record found during reconciliation")
		return r.engine.Snapshot()
	}

	snap := r.engine.Reconcile(start)
	log.Debug().
		Str("attempt_id", r.attemptID.String()).
		Int("remaining_sec", snap.RemainingSec).
		Str("phase", string(snap.Phase)).
		Msg("countdown reconciled on foreground")
	return snap
}
