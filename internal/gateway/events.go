package gateway

import (
	"encoding/json"
	"time"

	"github.com/rmarchetti/examclock/internal/countdown"
	"github.com/rmarchetti/examclock/internal/session"
)

// ExamEvent is the envelope for every message sent to the exam UI.
type ExamEvent struct {
	ID        string          `json:"id"`         // Event UUID
	AttemptID string          `json:"attempt_id"` // Attempt UUID
	Type      EventType       `json:"type"`       // Event type
	Timestamp time.Time       `json:"timestamp"`  // Event creation time
	Data      json.RawMessage `json:"data"`       // Event-specific payload
}

// EventType represents the type of exam session event.
type EventType string

const (
	EventTypeSessionState     EventType = "SessionState"
	EventTypeCountdownStarted EventType = "CountdownStarted"
	EventTypeTimerTick        EventType = "TimerTick"
	EventTypeTimerReconciled  EventType = "TimerReconciled"
	EventTypeTimeExpired      EventType = "TimeExpired"
	EventTypeError            EventType = "Error"
)

// SessionStatePayload is sent once per connection, right after the
// resumption guard has decided which screen the UI should render.
type SessionStatePayload struct {
	Route     session.Route       `json:"route"`
	Status    string              `json:"status"`
	TotalSec  int                 `json:"total_time_seconds"`
	StartedAt *time.Time          `json:"started_at,omitempty"`
	Countdown *countdown.Snapshot `json:"countdown,omitempty"`
}

// CountdownStartedPayload confirms that the start screen was confirmed
// and a timer record now anchors the countdown.
type CountdownStartedPayload struct {
	StartedAt time.Time `json:"started_at"`
	TotalSec  int       `json:"total_time_seconds"`
}

// TimerTickPayload carries one countdown observation to the UI.
type TimerTickPayload struct {
	RemainingSec int             `json:"remaining_sec"`
	Phase        countdown.Phase `json:"phase"`
	Display      string          `json:"display"`
	TickedAt     time.Time       `json:"ticked_at"`
}

// TimeExpiredPayload is the terminal event; the UI uses it to trigger
// final submission. It is sent at most once per connection.
type TimeExpiredPayload struct {
	ExpiredAt time.Time `json:"expired_at"`
}

// ErrorPayload reports a load failure to the UI.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Client message types received from the exam UI.
const (
	ClientMessageStart      = "start"
	ClientMessageVisibility = "visibility"
)

// ClientMessage is what the exam UI sends over the socket: a start
// confirmation from the ready screen, or a visibility transition.
type ClientMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible,omitempty"`
}

func tickPayload(snap countdown.Snapshot, at time.Time) TimerTickPayload {
	return TimerTickPayload{
		RemainingSec: snap.RemainingSec,
		Phase:        snap.Phase,
		Display:      snap.Display,
		TickedAt:     at,
	}
}
