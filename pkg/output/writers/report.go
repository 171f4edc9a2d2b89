// Package writers provides output writers for scan events.
package writers

import (
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/output/events"
)

// Report is the document both writers render: the scan metadata and
// the ordered results.
type Report struct {
	ScanID      string                   `json:"scan_id"`
	Target      events.TargetInfo        `json:"target"`
	Owner       string                   `json:"owner,omitempty"`
	Tests       []string                 `json:"tests"`
	StartedAt   time.Time                `json:"started_at"`
	DurationSec float64                  `json:"duration_sec"`
	Cancelled   bool                     `json:"cancelled,omitempty"`
	Vulnerable  int                      `json:"vulnerable"`
	BySeverity  map[finding.Severity]int `json:"by_severity,omitempty"`
	Results     []ReportResult           `json:"results"`
}

// ReportResult is one result plus its derived severity and run time.
type ReportResult struct {
	finding.Result
	Test       string           `json:"test"`
	Severity   finding.Severity `json:"severity"`
	DurationMs float64          `json:"duration_ms"`
}

// collector accumulates a Report from events. Callers serialize access.
type collector struct {
	report Report
}

func (c *collector) add(event events.Event) {
	if c.report.ScanID == "" {
		c.report.ScanID = event.ScanID()
	}
	switch e := event.(type) {
	case *events.StartEvent:
		c.report.Target = e.Target
		c.report.Owner = e.Owner
		c.report.Tests = e.Tests
		c.report.StartedAt = e.Timestamp()
	case *events.ResultEvent:
		c.report.Results = append(c.report.Results, ReportResult{
			Result:     e.Result,
			Test:       e.Test,
			Severity:   e.Severity,
			DurationMs: e.DurationMs,
		})
	case *events.CompleteEvent:
		c.report.Target = e.Target
		c.report.DurationSec = e.DurationSec
		c.report.Cancelled = e.Cancelled
		c.report.Vulnerable = e.Vulnerable
		c.report.BySeverity = e.BySeverity
	}
}

func (c *collector) snapshot() Report {
	r := c.report
	if r.Results == nil {
		r.Results = []ReportResult{}
	}
	if r.Vulnerable == 0 {
		for _, res := range r.Results {
			if res.Vulnerable {
				r.Vulnerable++
			}
		}
	}
	return r
}

func supportsScanEvents(et events.EventType) bool {
	switch et {
	case events.EventTypeStart, events.EventTypeResult, events.EventTypeComplete:
		return true
	default:
		return false
	}
}
