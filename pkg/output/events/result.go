package events

import (
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
)

// ResultEvent carries one probe result.
type ResultEvent struct {
	BaseEvent
	Index      int            `json:"index"`
	Test       string         `json:"test"`
	Target     TargetInfo     `json:"target"`
	Result     finding.Result `json:"result"`
	Severity   Severity       `json:"severity"`
	DurationMs float64        `json:"duration_ms"`

	// Failed is set when the probe returned an error or panicked.
	Failed bool `json:"failed,omitempty"`
}

// NewResult builds a ResultEvent for the index-th executed probe.
func NewResult(scanID string, index int, test string, ti TargetInfo, r finding.Result, elapsed time.Duration, failed bool, at time.Time) *ResultEvent {
	return &ResultEvent{
		BaseEvent:  newBase(EventTypeResult, scanID, at),
		Index:      index,
		Test:       test,
		Target:     ti,
		Result:     r,
		Severity:   r.Severity(),
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		Failed:     failed,
	}
}

// Duration returns the probe run time.
func (e *ResultEvent) Duration() time.Duration {
	return time.Duration(e.DurationMs * float64(time.Millisecond))
}
