package events

import (
	"time"

	"github.com/waftester/apiprobe/pkg/target"
)

// StartEvent is emitted when a scan begins.
type StartEvent struct {
	BaseEvent
	Target   TargetInfo `json:"target"`
	Tests    []string   `json:"tests"`
	Owner    string     `json:"owner,omitempty"`
	Resolved int        `json:"resolved_tests"`
}

// TargetInfo identifies the scanned endpoint.
type TargetInfo struct {
	Protocol string `json:"protocol"`
	URL      string `json:"url"`
	Method   string `json:"method"`
}

// TargetInfoOf extracts the reportable part of t. Headers, auth and
// body never leave the engine through events.
func TargetInfoOf(t *target.Target) TargetInfo {
	if t == nil {
		return TargetInfo{}
	}
	return TargetInfo{Protocol: string(t.Protocol), URL: t.URL, Method: t.Method}
}

// NewStart builds a StartEvent. resolved is the number of requested
// tests that map to a probe.
func NewStart(scanID string, t *target.Target, resolved int, at time.Time) *StartEvent {
	e := &StartEvent{
		BaseEvent: newBase(EventTypeStart, scanID, at),
		Target:    TargetInfoOf(t),
		Resolved:  resolved,
	}
	if t != nil {
		e.Tests = append([]string(nil), t.Tests...)
		e.Owner = t.Owner
	}
	return e
}
