// Package duration provides canonical time constants for apiprobe.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ContextScan)
//	client, err := httpclient.New(httpclient.WithTimeout(duration.HTTPScanning))
//
// Timing thresholds used by the SQL injection probe are defined here so
// tests and the profiler share one source.
package duration

import "time"

// ============================================================================
// HTTP CLIENT TIMEOUTS
// ============================================================================

const (
	// HTTPScanning bounds every probe request (30s).
	HTTPScanning = 30 * time.Second

	// DialTimeout is the TCP connect timeout (10s).
	DialTimeout = 10 * time.Second

	// TLSHandshake is the TLS handshake timeout (10s).
	TLSHandshake = 10 * time.Second

	// KeepAlive is the TCP keep-alive interval (30s).
	KeepAlive = 30 * time.Second

	// IdleConnTimeout is how long idle pooled connections live (90s).
	IdleConnTimeout = 90 * time.Second

	// ExpectContinue is the 100-continue wait (1s).
	ExpectContinue = 1 * time.Second
)

// ============================================================================
// TIMING SIDE-CHANNEL THRESHOLDS
// ============================================================================
//
// A response is anomalous when it takes longer than
// max(Floor, Multiplier * baseline).
// ============================================================================

const (
	// SuspiciousFloor is the floor for generic payloads (4s).
	SuspiciousFloor = 4 * time.Second

	// SuspiciousMultiplier scales the baseline for generic payloads.
	SuspiciousMultiplier = 2.0

	// ConfirmedFloor is the floor for explicit sleep payloads (5s).
	ConfirmedFloor = 5 * time.Second

	// ConfirmedMultiplier scales the baseline for explicit sleep payloads.
	ConfirmedMultiplier = 3.0
)

// DiffTimeout bounds one body similarity computation (1s).
const DiffTimeout = 1 * time.Second

// ============================================================================
// CONTEXT/SHUTDOWN
// ============================================================================

const (
	// ContextScan is the CLI-side upper bound for a whole scan (30min).
	ContextScan = 30 * time.Minute

	// SignalGrace is how long a second interrupt is awaited (5s).
	SignalGrace = 5 * time.Second

	// HookShutdown bounds metrics/tracing shutdown (5s).
	HookShutdown = 5 * time.Second

	// HookConnect bounds exporter connection setup (10s).
	HookConnect = 10 * time.Second

	// StoreWrite bounds a sink write (30s).
	StoreWrite = 30 * time.Second
)
