// Package soap runs the injection probes against SOAP endpoints. Each
// payload is spliced into the envelope body and the response is checked
// with the same detectors as the REST probes.
package soap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/sqli"
	"github.com/waftester/apiprobe/pkg/ssrf"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/xss"
)

// Result names.
const (
	TestSQL  = "SQL Injection (SOAP)"
	TestXSS  = "XSS (SOAP)"
	TestSSRF = "SSRF (SOAP)"
)

// failureRecommendation is shared by every SOAP probe.
const failureRecommendation = "Check SOAP request format"

// check describes one payload sweep.
type check struct {
	name      string
	label     string
	class     payloads.Class
	detect    func(body, payload string) bool
	hitRec    string
	cleanRec  string
	cleanDesc string
}

var (
	sqlCheck = check{
		name:      TestSQL,
		label:     "SQL Injection",
		class:     payloads.SQL,
		detect:    func(body, _ string) bool { return sqli.MentionsSQLOrError(body) },
		hitRec:    "Use parameterized queries and validate XML input",
		cleanDesc: "No SQL Injection vulnerabilities detected",
		cleanRec:  "Continue to validate and sanitize inputs",
	}
	xssCheck = check{
		name:      TestXSS,
		label:     "XSS",
		class:     payloads.XSS,
		detect:    xss.Reflected,
		hitRec:    "Sanitize XML input and implement Content Security Policy",
		cleanDesc: "No XSS vulnerabilities detected",
		cleanRec:  "Continue to sanitize inputs",
	}
	ssrfCheck = check{
		name:      TestSSRF,
		label:     "SSRF",
		class:     payloads.SSRF,
		detect:    func(body, _ string) bool { return ssrf.IndicatesInternalAccess(body) },
		hitRec:    "Restrict outbound connections and validate URLs in XML",
		cleanDesc: "No SSRF vulnerabilities detected",
		cleanRec:  "Continue to validate URLs",
	}
)

// Tester runs the SOAP probes.
type Tester struct {
	probe.Deps
}

// NewTester creates a Tester.
func NewTester(deps probe.Deps) *Tester {
	return &Tester{Deps: deps.WithDefaults()}
}

// SQL probes for SQL injection. Any mention of "sql" or "error" in the
// response counts.
func (t *Tester) SQL(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.sweep(ctx, tg, sqlCheck)
}

// XSS probes for payload reflection.
func (t *Tester) XSS(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.sweep(ctx, tg, xssCheck)
}

// SSRF probes for internal resource fetches.
func (t *Tester) SSRF(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.sweep(ctx, tg, ssrfCheck)
}

func (t *Tester) sweep(ctx context.Context, tg *target.Target, c check) (finding.Result, error) {
	if tg.Protocol != target.SOAP {
		return probe.NotApplicable(c.name, c.label+" test only available for SOAP APIs in this module"), nil
	}

	envelope := EnvelopeOf(tg)
	base := httpclient.Request{Method: tg.Method, URL: tg.URL, Headers: tg.Headers}
	for _, p := range t.Catalog.Values(c.class, target.SOAP) {
		snap, err := t.Executor.Send(ctx, base.WithBody(target.TextBody(Inject(envelope, p))))
		if err != nil {
			t.Logger.Warn("soap probe aborted",
				slog.String("probe", c.name),
				slog.String("url", tg.URL),
				slog.String("error", err.Error()))
			return probe.Failed(c.name, err, failureRecommendation), nil
		}
		if c.detect(snap.Body, p) {
			if f, ok := ParseFault(snap.Body); ok {
				t.Logger.Debug("soap fault", slog.String("code", f.Code), slog.String("fault", f.String))
			}
			return finding.Vulnerable(c.name, 0.8,
				fmt.Sprintf("%s vulnerability detected with payload: %s", c.label, p),
				p, c.hitRec), nil
		}
	}
	return finding.Clean(c.name, c.cleanDesc, c.cleanRec), nil
}
