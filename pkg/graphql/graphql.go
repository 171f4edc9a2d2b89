// Package graphql probes GraphQL endpoints: schema introspection,
// injection through query arguments and unbounded query depth.
//
// Each probe sends one fixed query from the payload catalog as
// POST {"query": ...} and inspects the raw response.
package graphql

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/waftester/apiprobe/pkg/differential"
	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/sqli"
	"github.com/waftester/apiprobe/pkg/target"
)

// Result names.
const (
	TestIntrospection = "GraphQL Introspection"
	TestSQL           = "SQL Injection (GraphQL)"
	TestXSS           = "XSS (GraphQL)"
	TestDoS           = "GraphQL DoS"
)

// Request is a GraphQL request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type check struct {
	name       string
	payload    string
	confidence float64
	detect     func(*httpclient.Snapshot) bool
	hitDesc    string
	hitRec     string
	cleanDesc  string
	cleanRec   string
}

var checks = map[string]check{
	TestIntrospection: {
		name:       TestIntrospection,
		payload:    payloads.GraphQLIntrospection,
		confidence: 0.9,
		detect:     func(s *httpclient.Snapshot) bool { return strings.Contains(s.Body, "__schema") },
		hitDesc:    "GraphQL introspection is enabled",
		hitRec:     "Disable introspection in production",
		cleanDesc:  "Introspection is disabled",
		cleanRec:   "Continue to disable introspection",
	},
	TestSQL: {
		name:       TestSQL,
		payload:    payloads.GraphQLSQLInjection,
		confidence: 0.8,
		detect:     func(s *httpclient.Snapshot) bool { return sqli.MentionsSQLOrError(s.Body) },
		hitDesc:    "SQL Injection vulnerability detected in GraphQL query",
		hitRec:     "Sanitize GraphQL inputs and use parameterized queries",
		cleanDesc:  "No SQL Injection vulnerabilities detected",
		cleanRec:   "Continue to sanitize inputs",
	},
	TestXSS: {
		name:       TestXSS,
		payload:    payloads.GraphQLXSS,
		confidence: 0.8,
		detect:     func(s *httpclient.Snapshot) bool { return strings.Contains(s.Body, "<script>") },
		hitDesc:    "XSS vulnerability detected in GraphQL query",
		hitRec:     "Sanitize GraphQL inputs and implement CSP",
		cleanDesc:  "No XSS vulnerabilities detected",
		cleanRec:   "Continue to sanitize inputs",
	},
	TestDoS: {
		name:       TestDoS,
		payload:    payloads.GraphQLDoS,
		confidence: 0.7,
		detect:     answeredWithData,
		hitDesc:    "GraphQL endpoint is vulnerable to DoS via nested queries",
		hitRec:     "Implement query depth limiting and cost analysis",
		cleanDesc:  "No DoS vulnerabilities detected",
		cleanRec:   "Continue to implement query limits",
	},
}

// Tester runs the GraphQL probes.
type Tester struct {
	probe.Deps
}

// NewTester creates a Tester.
func NewTester(deps probe.Deps) *Tester {
	return &Tester{Deps: deps.WithDefaults()}
}

// Introspection flags an exposed schema.
func (t *Tester) Introspection(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.run(ctx, tg, checks[TestIntrospection])
}

// SQL flags SQL or error text in the response to an injected argument.
func (t *Tester) SQL(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.run(ctx, tg, checks[TestSQL])
}

// XSS flags a reflected script tag.
func (t *Tester) XSS(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.run(ctx, tg, checks[TestXSS])
}

// DoS flags a server that answers a four-level nested query.
func (t *Tester) DoS(ctx context.Context, tg *target.Target) (finding.Result, error) {
	return t.run(ctx, tg, checks[TestDoS])
}

func (t *Tester) run(ctx context.Context, tg *target.Target, c check) (finding.Result, error) {
	if tg.Protocol != target.GraphQL {
		return probe.NotApplicable(c.name, c.name+" test only available for GraphQL APIs in this module"), nil
	}
	p, ok := t.Catalog.GraphQL(c.payload)
	if !ok {
		return finding.Result{}, errUnknownPayload(c.payload)
	}

	snap, err := t.Executor.Send(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     tg.URL,
		Headers: tg.Headers,
		Body:    target.JSONBody(Request{Query: p.Value}),
	})
	if err != nil {
		t.Logger.Warn("graphql probe failed",
			slog.String("probe", c.name),
			slog.String("url", tg.URL),
			slog.String("error", err.Error()))
		return probe.Failed(c.name, err, "Check GraphQL endpoint"), nil
	}
	t.Logger.Debug("graphql response",
		slog.String("probe", c.name),
		slog.Int("status", snap.StatusCode),
		slog.Int("errors", countErrors(snap.Body)))

	if c.detect(snap) {
		return finding.Vulnerable(c.name, c.confidence, c.hitDesc, p.Value, c.hitRec), nil
	}
	return finding.Clean(c.name, c.cleanDesc, c.cleanRec), nil
}

// answeredWithData reports a 200 carrying data. A JSON object must have
// a top-level "data" key; other bodies only need to mention it.
func answeredWithData(s *httpclient.Snapshot) bool {
	if s.StatusCode != http.StatusOK {
		return false
	}
	parsed := differential.Parse(s.Body)
	if keys, ok := parsed.Keys(); ok {
		_, has := keys["data"]
		return has
	}
	return strings.Contains(s.Body, "data")
}

// countErrors returns the length of a GraphQL "errors" array, or 0.
func countErrors(body string) int {
	parsed := differential.Parse(body)
	obj, ok := parsed.Value.(map[string]any)
	if !ok {
		return 0
	}
	errs, _ := obj["errors"].([]any)
	return len(errs)
}
