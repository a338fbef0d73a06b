package timerstore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists the start instant of an attempt's countdown. The record
// is written once per attempt id and never rewritten; every later mount,
// reload, or foreground transition re-derives remaining time from it.
//
// Absence of a record is a normal state (first start), not an error.
type Store interface {
	// GetStart returns the stored start instant for the attempt, or
	// ok=false when no record exists.
	GetStart(ctx context.Context, attemptID uuid.UUID) (start time.Time, ok bool, err error)

	// SetStartIfAbsent records now as the attempt's start instant unless a
	// record already exists, and returns the winning value either way.
	// Concurrent callers for the same attempt id converge on one value;
	// re-entry never resets the clock.
	SetStartIfAbsent(ctx context.Context, attemptID uuid.UUID, now time.Time) (time.Time, error)
}
