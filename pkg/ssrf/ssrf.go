// Package ssrf detects server-side request forgery through a URL-taking
// query parameter.
package ssrf

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
const TestREST = "SSRF (REST)"

// Param is the query parameter payloads are injected into.
const Param = "url"

// indicators show the server fetched an internal resource.
var indicators = []string{"metadata", "localhost"}

// Tester runs the REST SSRF probe.
type Tester struct {
	probe.Deps
}

// NewTester creates a Tester.
func NewTester(deps probe.Deps) *Tester {
	return &Tester{Deps: deps.WithDefaults()}
}

// Name implements probe.Probe.
func (t *Tester) Name() string { return TestREST }

// Run implements probe.Probe.
func (t *Tester) Run(ctx context.Context, tg *target.Target) (finding.Result, error) {
	if tg.Protocol != target.REST {
		return probe.NotApplicable(TestREST, "SSRF test only available for REST APIs in this module"), nil
	}

	base := httpclient.FromTarget(tg)
	for _, p := range t.Catalog.Values(payloads.SSRF, target.REST) {
		snap, err := t.Executor.Send(ctx, base.WithParam(Param, p))
		if err != nil {
			t.Logger.Warn("ssrf probe aborted", slog.String("url", tg.URL), slog.String("error", err.Error()))
			return probe.Failed(TestREST, err, "Check request format"), nil
		}
		if IndicatesInternalAccess(snap.Body) {
			return finding.Vulnerable(TestREST, 0.8,
				fmt.Sprintf("SSRF vulnerability detected with payload: %s", p),
				p, "Restrict outbound connections and validate URLs"), nil
		}
	}
	return finding.Clean(TestREST, "No SSRF vulnerabilities detected", "Monitor for internal service exposure"), nil
}

// IndicatesInternalAccess reports whether body mentions cloud metadata
// or the loopback host, case-insensitively.
func IndicatesInternalAccess(body string) bool {
	lower := strings.ToLower(body)
	for _, s := range indicators {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
