// Package xss detects reflected cross-site scripting in REST APIs.
package xss

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

// TestREST is the result name.
const TestREST = "XSS (REST)"

// Param is the query parameter payloads are injected into.
const Param = "test"

// Tester runs the REST XSS probe.
type Tester struct {
	probe.Deps
}

// NewTester creates a Tester.
func NewTester(deps probe.Deps) *Tester {
	return &Tester{Deps: deps.WithDefaults()}
}

// Name implements probe.Probe.
func (t *Tester) Name() string { return TestREST }

// Run implements probe.Probe. The first payload reflected verbatim wins.
// A transport failure ends the probe without a verdict.
func (t *Tester) Run(ctx context.Context, tg *target.Target) (finding.Result, error) {
	if tg.Protocol != target.REST {
		return probe.NotApplicable(TestREST, "XSS test only available for REST APIs in this module"), nil
	}

	base := httpclient.FromTarget(tg)
	for _, p := range t.Catalog.Values(payloads.XSS, target.REST) {
		snap, err := t.Executor.Send(ctx, base.WithParam(Param, p))
		if err != nil {
			t.Logger.Warn("xss probe aborted", slog.String("url", tg.URL), slog.String("error", err.Error()))
			return probe.Failed(TestREST, err, "Check request format"), nil
		}
		if Reflected(snap.Body, p) {
			return finding.Vulnerable(TestREST, 0.8,
				fmt.Sprintf("XSS vulnerability detected with payload: %s", p),
				p, "Implement input sanitization and CSP headers"), nil
		}
	}
	return finding.Clean(TestREST, "No XSS vulnerabilities detected", "Regularly test with updated payloads"), nil
}

// Reflected reports whether payload appears unmodified in body.
func Reflected(body, payload string) bool {
	return payload != "" && strings.Contains(body, payload)
}
