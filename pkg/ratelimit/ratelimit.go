// Package ratelimit checks whether an endpoint throttles a burst of
// identical requests.
//
// This is the only probe that fans out: it fires the whole burst at
// once through httpclient.Executor.Burst and waits for every outcome.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

// TestName is the result name for every protocol.
const TestName = "Rate Limiting"

// Tally summarizes a burst.
type Tally struct {
	Sent        int
	Responses   int
	Errors      int
	RateLimited int
	StatusCodes map[int]int
}

// Count tallies burst outcomes.
func Count(outcomes []httpclient.BurstOutcome) Tally {
	t := Tally{Sent: len(outcomes), StatusCodes: make(map[int]int)}
	for _, o := range outcomes {
		if o.Err != nil || o.Snapshot == nil {
			t.Errors++
			continue
		}
		t.Responses++
		t.StatusCodes[o.Snapshot.StatusCode]++
		if o.Snapshot.StatusCode == http.StatusTooManyRequests {
			t.RateLimited++
		}
	}
	return t
}

// Tester runs the rate limit probe.
type Tester struct {
	probe.Deps

	// Requests is the burst size (default: defaults.BurstSize).
	Requests int
}

// NewTester creates a Tester sending defaults.BurstSize requests.
func NewTester(deps probe.Deps) *Tester {
	return &Tester{Deps: deps.WithDefaults(), Requests: defaults.BurstSize}
}

// Name implements probe.Probe.
func (t *Tester) Name() string { return TestName }

// Run implements probe.Probe. Any 429 means the endpoint throttles.
// Failed requests are counted but never abort the burst; without a 429
// the endpoint is reported as unthrottled.
func (t *Tester) Run(ctx context.Context, tg *target.Target) (finding.Result, error) {
	n := t.Requests
	if n <= 0 {
		n = defaults.BurstSize
	}

	outcomes := t.Executor.Burst(ctx, httpclient.FromTarget(tg), n)
	if err := ctx.Err(); err != nil {
		return finding.Result{}, err
	}

	tally := Count(outcomes)
	t.Logger.Info("burst complete",
		slog.String("url", tg.URL),
		slog.Int("sent", tally.Sent),
		slog.Int("responses", tally.Responses),
		slog.Int("errors", tally.Errors),
		slog.Int("rate_limited", tally.RateLimited))
	if tally.Responses == 0 {
		t.Logger.Warn("no request in the burst got a response", slog.String("url", tg.URL))
	}

	switch {
	case tally.RateLimited > 0:
		return finding.New(TestName, false, 1.0,
			"Rate limiting is properly implemented (received 429 responses)", "",
			"Maintain current rate limiting configuration"), nil
	default:
		return finding.New(TestName, true, 0.9,
			"No rate limiting detected (no 429 responses)", "",
			"Implement rate limiting to prevent brute force attacks"), nil
	}
}
