// Package sqli detects SQL injection in REST query parameters.
//
// Detection runs in a fixed order and stops at the first signal:
// a boolean true/false pair, then each catalog payload checked for
// database errors, sensitive data, content divergence and latency, then
// explicit per-dialect sleep payloads.
package sqli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/timing"
)

// Result names.
const (
	TestREST         = "SQL Injection (REST)"
	TestBooleanBased = "SQL Injection (Boolean-Based)"
	TestErrorBased   = "SQL Injection (Error-Based)"
	TestDataExposure = "SQL Injection (Data Exposure)"
	TestContentBased = "SQL Injection (Content-Based)"
	TestTimeBased    = "SQL Injection (Time-Based)"
	TestPotential    = "SQL Injection (Potential)"
)

// Config holds the timing policies. Tests shrink them to keep runs fast.
type Config struct {
	// Suspicious applies to catalog payloads.
	Suspicious timing.Policy

	// Confirmed applies to the explicit sleep payloads.
	Confirmed timing.Policy

	// DelayTimeout bounds each sleep payload request. Zero uses the
	// client timeout.
	DelayTimeout time.Duration
}

// DefaultConfig returns the production policies.
func DefaultConfig() Config {
	return Config{
		Suspicious: timing.Suspicious,
		Confirmed:  timing.Confirmed,
	}
}

// Tester runs the REST SQL injection probe.
type Tester struct {
	probe.Deps
	config Config
}

// NewTester creates a Tester. A nil config uses DefaultConfig.
func NewTester(deps probe.Deps, config *Config) *Tester {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	return &Tester{Deps: deps.WithDefaults(), config: cfg}
}

// Name implements probe.Probe.
func (t *Tester) Name() string { return TestREST }

// Run implements probe.Probe.
func (t *Tester) Run(ctx context.Context, tg *target.Target) (finding.Result, error) {
	if tg.Protocol != target.REST {
		return probe.NotApplicable(TestREST, "SQL injection test only available for REST APIs in this module"), nil
	}

	param, ok := tg.Params.First()
	if !ok {
		t.Logger.Warn("no parameters to inject", slog.String("url", tg.URL))
		return finding.Clean(TestREST,
			"No parameters provided to test for SQL injection",
			"Ensure the API request includes query parameters"), nil
	}
	log := t.Logger.With(slog.String("probe", TestREST), slog.String("param", param.Key))

	base := httpclient.FromTarget(tg)
	baseline, err := t.Executor.Send(ctx, base)
	var baselineLatency time.Duration
	if err == nil {
		baselineLatency, err = t.Profiler.Baseline(ctx, func(ctx context.Context) error {
			_, err := t.Executor.Send(ctx, base)
			return err
		})
	}
	if err != nil {
		log.Warn("baseline failed", slog.String("error", err.Error()))
		return finding.Clean(TestREST,
			fmt.Sprintf("Failed to get baseline response: %v", err),
			"Check the API endpoint and request format"), nil
	}
	log.Debug("baseline",
		slog.Int("status", baseline.StatusCode),
		slog.Int("length", baseline.Len()),
		slog.Duration("latency", baselineLatency))

	if r, ok := t.booleanBased(ctx, base, param.Key, log); ok {
		return r, nil
	}

	for _, p := range t.Catalog.Values(payloads.SQL, target.REST) {
		req := base.WithParam(param.Key, p)
		snap, elapsed, err := t.timedSend(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return finding.Result{}, ctx.Err()
			}
			msg := strings.ToLower(err.Error())
			log.Debug("payload failed", slog.String("payload", p), slog.String("error", msg))
			var ne *httpclient.NetworkError
			if errors.As(err, &ne) && (strings.Contains(msg, "timeout") || strings.Contains(msg, "connection reset")) {
				return finding.Vulnerable(TestPotential, 0.7,
					fmt.Sprintf("Request failed in suspicious way: %s", msg),
					p, "Investigate server logs"), nil
			}
			continue
		}

		switch {
		case ContainsSQLError(snap.Body):
			return finding.Vulnerable(TestErrorBased, 0.95,
				fmt.Sprintf("Error-based SQL Injection detected with payload: %s", p),
				p, "Use parameterized queries"), nil
		case ContainsSensitiveData(snap.Body):
			return finding.Vulnerable(TestDataExposure, 0.9,
				fmt.Sprintf("Sensitive data exposed with payload: %s", p),
				p, "Implement proper data access controls"), nil
		case t.Analyzer.DiffersSignificantly(baseline, snap):
			return finding.Vulnerable(TestContentBased, 0.8,
				fmt.Sprintf("Content differences detected with payload: %s", p),
				p, "Validate all inputs"), nil
		case t.config.Suspicious.IsAnomalous(elapsed, baselineLatency):
			return finding.Vulnerable(TestTimeBased, 0.85,
				fmt.Sprintf("Time delay detected (%.2fs) with payload: %s", elapsed.Seconds(), p),
				p, "Implement query timeouts"), nil
		}
	}

	for _, p := range payloads.TimeDelay() {
		req := base.WithParam(param.Key, p.Value)
		req.Timeout = t.config.DelayTimeout
		_, elapsed, err := t.timedSend(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return finding.Result{}, ctx.Err()
			}
			if strings.Contains(strings.ToLower(err.Error()), "timeout") {
				log.Debug("sleep payload timed out", slog.String("payload", p.Value))
				return finding.Vulnerable(TestTimeBased, 0.85,
					fmt.Sprintf("Request timeout with time-based payload: %s", p.Value),
					p.Value, "Implement query timeouts and review SQL injection protections"), nil
			}
			continue
		}
		if t.config.Confirmed.IsAnomalous(elapsed, baselineLatency) {
			return finding.Vulnerable(TestTimeBased, 0.9,
				fmt.Sprintf("Time-based SQL Injection detected (delay: %.2fs) with payload: %s", elapsed.Seconds(), p.Value),
				p.Value, "Use parameterized queries and implement query timeouts"), nil
		}
	}

	log.Debug("no signal")
	return finding.Clean(TestREST,
		"No SQL Injection vulnerabilities detected",
		"Continue to validate and sanitize inputs"), nil
}

// booleanBased compares the true and false branches with each other.
// Transport failures are logged and the test is skipped.
func (t *Tester) booleanBased(ctx context.Context, base httpclient.Request, key string, log *slog.Logger) (finding.Result, bool) {
	truePayload, falsePayload := payloads.BooleanPair()

	trueSnap, err := t.Executor.Send(ctx, base.WithParam(key, truePayload))
	if err != nil {
		log.Warn("boolean-based test failed", slog.String("error", err.Error()))
		return finding.Result{}, false
	}
	falseSnap, err := t.Executor.Send(ctx, base.WithParam(key, falsePayload))
	if err != nil {
		log.Warn("boolean-based test failed", slog.String("error", err.Error()))
		return finding.Result{}, false
	}

	if !t.Analyzer.DiffersSignificantly(trueSnap, falseSnap) {
		return finding.Result{}, false
	}
	return finding.Vulnerable(TestBooleanBased, 0.85,
		"Boolean-based SQL injection vulnerability detected",
		fmt.Sprintf("TRUE: %s, FALSE: %s", truePayload, falsePayload),
		"Use parameterized queries"), true
}

func (t *Tester) timedSend(ctx context.Context, req httpclient.Request) (*httpclient.Snapshot, time.Duration, error) {
	var snap *httpclient.Snapshot
	elapsed, err := t.Profiler.Stopwatch(ctx, func(ctx context.Context) error {
		var err error
		snap, err = t.Executor.Send(ctx, req)
		return err
	})
	return snap, elapsed, err
}
