package finding

import (
	"fmt"
	"math"
)

// Result is the verdict of a single probe.
type Result struct {
	TestName       string  `json:"test_name" yaml:"test_name"`
	Vulnerable     bool    `json:"vulnerable" yaml:"vulnerable"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	Description    string  `json:"description" yaml:"description"`
	Payload        *string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Recommendation string  `json:"recommendation" yaml:"recommendation"`
}

// New builds a Result. Confidence is clamped into [0, 1]; an empty
// payload is stored as absent.
func New(name string, vulnerable bool, confidence float64, description, payload, recommendation string) Result {
	r := Result{
		TestName:       name,
		Vulnerable:     vulnerable,
		Confidence:     ClampConfidence(confidence),
		Description:    description,
		Recommendation: recommendation,
	}
	if payload != "" {
		p := payload
		r.Payload = &p
	}
	return r
}

// Vulnerable builds a positive Result that carries the triggering payload.
func Vulnerable(name string, confidence float64, description, payload, recommendation string) Result {
	return New(name, true, confidence, description, payload, recommendation)
}

// Clean builds a negative Result with zero confidence and no payload.
func Clean(name, description, recommendation string) Result {
	return New(name, false, 0, description, "", recommendation)
}

// Failed builds the zero-confidence result used when a probe could not
// reach a verdict.
func Failed(name string, err error, recommendation string) Result {
	return Clean(name, fmt.Sprintf("Test failed: %v", err), recommendation)
}

// PayloadText returns the payload or "" when absent.
func (r Result) PayloadText() string {
	if r.Payload == nil {
		return ""
	}
	return *r.Payload
}

// HasPayload reports whether the result names a triggering payload.
func (r Result) HasPayload() bool {
	return r.Payload != nil
}

// Severity returns the risk bucket of the result.
func (r Result) Severity() Severity {
	return SeverityOf(r)
}

// ClampConfidence forces c into [0, 1]. NaN maps to 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// Outcome is the ordered list of results produced by one scan.
type Outcome []Result

// VulnerableCount returns how many results are positive.
func (o Outcome) VulnerableCount() int {
	n := 0
	for _, r := range o {
		if r.Vulnerable {
			n++
		}
	}
	return n
}

// HasVulnerable reports whether any result is positive.
func (o Outcome) HasVulnerable() bool {
	return o.VulnerableCount() > 0
}

// Names returns the test names in order.
func (o Outcome) Names() []string {
	names := make([]string, len(o))
	for i, r := range o {
		names[i] = r.TestName
	}
	return names
}
