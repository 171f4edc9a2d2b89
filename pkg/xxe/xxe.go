// Package xxe detects XML external entity processing on SOAP endpoints
// by asking the parser to expand an entity bound to /etc/passwd.
package xxe

import (
	"context"
	"log/slog"
	"strings"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

// TestSOAP is the result name.
const TestSOAP = "XXE (SOAP)"

// Marker is the /etc/passwd fragment that proves the entity expanded.
const Marker = "root:"

// Tester runs the XXE probe.
type Tester struct {
	probe.Deps
}

// NewTester creates a Tester.
func NewTester(deps probe.Deps) *Tester {
	return &Tester{Deps: deps.WithDefaults()}
}

// Name implements probe.Probe.
func (t *Tester) Name() string { return TestSOAP }

// Run implements probe.Probe. It sends one fixed document.
func (t *Tester) Run(ctx context.Context, tg *target.Target) (finding.Result, error) {
	if tg.Protocol != target.SOAP {
		return probe.NotApplicable(TestSOAP, "XXE test only available for SOAP APIs in this module"), nil
	}

	doc := payloads.XXE()
	snap, err := t.Executor.Send(ctx, httpclient.Request{
		Method:  tg.Method,
		URL:     tg.URL,
		Headers: tg.Headers,
		Body:    target.TextBody(doc),
	})
	if err != nil {
		t.Logger.Warn("xxe probe failed", slog.String("url", tg.URL), slog.String("error", err.Error()))
		return probe.Failed(TestSOAP, err, "Check SOAP request format"), nil
	}
	if strings.Contains(snap.Body, Marker) {
		return finding.Vulnerable(TestSOAP, 0.9, "XXE vulnerability detected", doc,
			"Disable external entity processing in XML parser"), nil
	}
	return finding.Clean(TestSOAP, "No XXE vulnerabilities detected", "Ensure external entity processing is disabled"), nil
}
