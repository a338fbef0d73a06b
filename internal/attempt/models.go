package attempt

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the lifecycle status of an exam attempt. The attempt
// service owns these values; this subsystem only reads them.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSubmitted  Status = "SUBMITTED"
	StatusExpired    Status = "EXPIRED"
)

// Terminal reports whether the attempt can no longer be worked on.
func (s Status) Terminal() bool {
	return s == StatusSubmitted || s == StatusExpired
}

// Attempt is one student's exam session as tracked by the remote attempt
// service. TotalTimeSec is the full duration granted for the attempt, not
// a countdown value.
type Attempt struct {
	ID           uuid.UUID `json:"id"`
	ExamID       uuid.UUID `json:"exam_id"`
	TotalTimeSec int       `json:"total_time_seconds"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// TotalTime returns the granted duration as a time.Duration.
func (a *Attempt) TotalTime() time.Duration {
	return time.Duration(a.TotalTimeSec) * time.Second
}
