package events

import (
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
)

// CompleteEvent is emitted when a scan finishes, including scans cut
// short by cancellation.
type CompleteEvent struct {
	BaseEvent
	Target      TargetInfo               `json:"target"`
	Results     int                      `json:"results"`
	Vulnerable  int                      `json:"vulnerable"`
	BySeverity  map[finding.Severity]int `json:"by_severity,omitempty"`
	DurationSec float64                  `json:"duration_sec"`
	Cancelled   bool                     `json:"cancelled,omitempty"`
	Outcome     finding.Outcome          `json:"outcome"`
}

// NewComplete builds a CompleteEvent from the final outcome.
func NewComplete(scanID string, ti TargetInfo, outcome finding.Outcome, elapsed time.Duration, cancelled bool, at time.Time) *CompleteEvent {
	bySev := make(map[finding.Severity]int)
	for _, r := range outcome {
		bySev[r.Severity()]++
	}
	return &CompleteEvent{
		BaseEvent:   newBase(EventTypeComplete, scanID, at),
		Target:      ti,
		Results:     len(outcome),
		Vulnerable:  outcome.VulnerableCount(),
		BySeverity:  bySev,
		DurationSec: elapsed.Seconds(),
		Cancelled:   cancelled,
		Outcome:     outcome,
	}
}
