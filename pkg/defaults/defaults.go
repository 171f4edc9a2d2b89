// Package defaults provides canonical default values for apiprobe.
// Numeric knobs, content types and the default test selection live here
// so that the CLI, config loader and engine agree on them.
//
// Usage:
//
//	cfg.BurstSize = defaults.BurstSize
//	req.Header.Set("Content-Type", defaults.ContentTypeJSON)
package defaults

import "fmt"

// Version is the current apiprobe version.
const Version = "0.4.0"

// ToolName is used in user agents, service names and metric prefixes.
const ToolName = "apiprobe"

// ============================================================================
// SCAN SETTINGS
// ============================================================================

const (
	// BurstSize is the number of concurrent requests fired by the
	// rate-limit probe (100).
	BurstSize = 100

	// BurstWorkers bounds the goroutines used to fire a burst (100).
	// Equal to BurstSize so that every request is in flight at once.
	BurstWorkers = 100

	// BaselineSamples is the number of timed runs used for a latency
	// baseline (3).
	BaselineSamples = 3

	// DiffThreshold is the fractional body-length change that counts as
	// a significant difference (0.3).
	DiffThreshold = 0.3

	// SimilarityFloor is the similarity ratio below which two bodies are
	// considered different (0.7).
	SimilarityFloor = 0.7

	// ArrayLengthSlack is the element count two JSON arrays may differ by
	// before they are considered structurally different (3).
	ArrayLengthSlack = 3
)

// DefaultTests is the test selection used when a target names none.
var DefaultTests = []string{"sql", "xss", "ssrf", "rate_limit"}

// DefaultGraphQLTests replaces DefaultTests for GraphQL targets.
var DefaultGraphQLTests = []string{"introspection", "sql", "xss", "dos", "rate_limit"}

// Tests returns a copy of DefaultTests.
func Tests() []string {
	out := make([]string, len(DefaultTests))
	copy(out, DefaultTests)
	return out
}

// TestsFor returns a copy of the default selection for protocol.
func TestsFor(protocol string) []string {
	if protocol == "GraphQL" {
		out := make([]string, len(DefaultGraphQLTests))
		copy(out, DefaultGraphQLTests)
		return out
	}
	return Tests()
}

// ============================================================================
// HTTP SETTINGS
// ============================================================================

const (
	// MaxBodySize caps how much of a response body is read (10MB).
	MaxBodySize = 10 * 1024 * 1024

	// MaxIdleConns is the pool size across all hosts (100).
	MaxIdleConns = 100

	// MaxConnsPerHost must allow a full burst to one host (BurstSize).
	MaxConnsPerHost = BurstSize

	// RequestsPerSecond disables pacing of sequential probes when zero.
	RequestsPerSecond = 0
)

// ============================================================================
// CONTENT TYPES
// ============================================================================

const (
	// ContentTypeJSON is application/json
	ContentTypeJSON = "application/json"

	// ContentTypeXML is text/xml, as expected by SOAP 1.1 endpoints
	ContentTypeXML = "text/xml; charset=utf-8"

	// ContentTypePlain is text/plain
	ContentTypePlain = "text/plain"
)

// ============================================================================
// OBSERVABILITY
// ============================================================================

const (
	// MetricsPort is the default Prometheus listen port (9464).
	MetricsPort = 9464

	// MetricsPath is the default Prometheus scrape path.
	MetricsPath = "/metrics"

	// OTelEndpoint is the default OTLP gRPC collector address.
	OTelEndpoint = "localhost:4317"
)

// UserAgent returns the apiprobe user agent, tagged with the calling
// component when one is given.
func UserAgent(component string) string {
	if component == "" {
		return fmt.Sprintf("%s/%s", ToolName, Version)
	}
	return fmt.Sprintf("%s/%s (%s)", ToolName, Version, component)
}
