package countdown

import "fmt"

// Phase is the warning level of a running countdown. Phases only move
// forward as remaining time decreases; PhaseExpired is terminal.
type Phase string

const (
	PhaseRunning  Phase = "running"
	PhaseWarning  Phase = "warning"  // remaining <= 5 minutes
	PhaseCritical Phase = "critical" // remaining <= 1 minute
	PhaseExpired  Phase = "expired"
)

// Warning thresholds, in seconds of remaining time.
const (
	WarningThresholdSec  = 300
	CriticalThresholdSec = 60
)

// PhaseFor maps remaining seconds to a warning phase.
func PhaseFor(remainingSec int) Phase {
	switch {
	case remainingSec <= 0:
		return PhaseExpired
	case remainingSec <= CriticalThresholdSec:
		return PhaseCritical
	case remainingSec <= WarningThresholdSec:
		return PhaseWarning
	default:
		return PhaseRunning
	}
}

// Snapshot is the observable state of a countdown at one instant. It is
// recomputed from the start timestamp on every observation and never
// persisted.
type Snapshot struct {
	RemainingSec int    `json:"remaining_sec"`
	Phase        Phase  `json:"phase"`
	Display      string `json:"display"`
}

// Expired reports whether this snapshot is terminal.
func (s Snapshot) Expired() bool {
	return s.Phase == PhaseExpired
}

// FormatHHMMSS renders seconds as zero-padded HH:MM:SS for display.
func FormatHHMMSS(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}
