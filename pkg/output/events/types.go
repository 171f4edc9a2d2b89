// Package events defines the events a scan emits while it runs.
//
// A scan produces exactly one StartEvent, one ResultEvent per executed
// probe, and one CompleteEvent. Events are plain values designed for
// JSON serialization; hooks and writers receive them through the
// dispatcher.
package events

import (
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
)

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeStart indicates a scan has started.
	EventTypeStart EventType = "start"
	// EventTypeResult indicates a single probe result.
	EventTypeResult EventType = "result"
	// EventTypeComplete indicates a scan has completed.
	EventTypeComplete EventType = "complete"
)

// Severity is the risk bucket of a result.
type Severity = finding.Severity

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	ScanID() string
}

// BaseEvent contains common fields for all events.
// It is designed to be embedded in specific event types.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Scan string    `json:"scan_id"`
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// ScanID returns the unique identifier for the scan that produced this event.
func (e BaseEvent) ScanID() string { return e.Scan }

func newBase(t EventType, scanID string, at time.Time) BaseEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return BaseEvent{Type: t, Time: at.UTC(), Scan: scanID}
}
