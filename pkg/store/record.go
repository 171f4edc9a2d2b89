// Package store persists scan outcomes and summarizes stored results.
//
// The scanner never writes to storage itself; callers hand a finished
// outcome to a Sink. Two sinks exist: an append-only JSON Lines file
// and a SQL table through gorm (MySQL in deployments, SQLite for local
// use and tests).
package store

import (
	"errors"
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/target"
)

// Sentinel errors.
var (
	ErrUnknownKind = errors.New("store: unknown sink kind")
	ErrNilTarget   = errors.New("store: nil target")
	ErrClosed      = errors.New("store: sink closed")
)

// Record is one stored result.
type Record struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ScanID         string    `gorm:"size:36;index" json:"scan_id"`
	Owner          string    `gorm:"size:128;index" json:"owner,omitempty"`
	Protocol       string    `gorm:"size:16" json:"api_type"`
	URL            string    `gorm:"size:2048" json:"url"`
	Position       int       `json:"position"`
	TestName       string    `gorm:"size:128;index" json:"test_name"`
	Vulnerable     bool      `json:"vulnerable"`
	Confidence     float64   `json:"confidence"`
	Description    string    `gorm:"type:text" json:"description"`
	Payload        *string   `gorm:"type:text" json:"payload,omitempty"`
	Recommendation string    `gorm:"type:text" json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName fixes the SQL table name.
func (Record) TableName() string { return "test_results" }

// Result converts the record back into a finding.Result.
func (r Record) Result() finding.Result {
	return finding.Result{
		TestName:       r.TestName,
		Vulnerable:     r.Vulnerable,
		Confidence:     r.Confidence,
		Description:    r.Description,
		Payload:        r.Payload,
		Recommendation: r.Recommendation,
	}
}

// Severity buckets the record like its result.
func (r Record) Severity() finding.Severity {
	return finding.SeverityOf(r.Result())
}

// RecordsOf flattens an outcome into records sharing scanID, owner and
// timestamp. Position preserves outcome order.
func RecordsOf(scanID, owner string, t *target.Target, outcome finding.Outcome, at time.Time) ([]Record, error) {
	if t == nil {
		return nil, ErrNilTarget
	}
	at = at.UTC()
	recs := make([]Record, len(outcome))
	for i, r := range outcome {
		recs[i] = Record{
			ScanID:         scanID,
			Owner:          owner,
			Protocol:       string(t.Protocol),
			URL:            t.URL,
			Position:       i,
			TestName:       r.TestName,
			Vulnerable:     r.Vulnerable,
			Confidence:     r.Confidence,
			Description:    r.Description,
			Payload:        r.Payload,
			Recommendation: r.Recommendation,
			CreatedAt:      at,
		}
	}
	return recs, nil
}
