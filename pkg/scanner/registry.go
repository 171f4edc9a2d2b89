// Package scanner resolves requested test names against a protocol's
// probe table and runs them in order, turning every probe failure into
// a result so that a scan always completes.
package scanner

import (
	"github.com/waftester/apiprobe/pkg/graphql"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/ratelimit"
	"github.com/waftester/apiprobe/pkg/soap"
	"github.com/waftester/apiprobe/pkg/sqli"
	"github.com/waftester/apiprobe/pkg/ssrf"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/xss"
	"github.com/waftester/apiprobe/pkg/xxe"
)

// Entry binds a test name to a probe for one protocol.
type Entry struct {
	Protocol target.Protocol
	Name     string
	Probe    probe.Probe
}

type key struct {
	protocol target.Protocol
	name     string
}

// Registry is the (protocol, test name) -> Probe table. It is built once
// and never mutated afterwards, so it is safe for concurrent reads.
type Registry struct {
	probes map[key]probe.Probe
	order  map[target.Protocol][]string
	protos []target.Protocol
}

// NewRegistry builds a Registry. A later entry with the same protocol
// and name replaces the earlier probe but keeps its position.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{
		probes: make(map[key]probe.Probe, len(entries)),
		order:  make(map[target.Protocol][]string),
	}
	for _, e := range entries {
		k := key{e.Protocol, e.Name}
		if _, exists := r.probes[k]; !exists {
			if _, seen := r.order[e.Protocol]; !seen {
				r.protos = append(r.protos, e.Protocol)
			}
			r.order[e.Protocol] = append(r.order[e.Protocol], e.Name)
		}
		r.probes[k] = e.Probe
	}
	return r
}

// Options tune the probes built by DefaultRegistry.
type Options struct {
	// SQLi overrides the SQL injection timing configuration.
	SQLi *sqli.Config

	// BurstSize overrides the rate limit burst (0 keeps the default).
	BurstSize int
}

// DefaultRegistry returns the standard probe table:
//
//	REST:    sql, xss, ssrf, rate_limit
//	SOAP:    sql, xss, ssrf, xxe, rate_limit
//	GraphQL: introspection, sql, xss, dos, rate_limit
func DefaultRegistry(deps probe.Deps) *Registry {
	return BuildRegistry(deps, Options{})
}

// BuildRegistry is DefaultRegistry with options.
func BuildRegistry(deps probe.Deps, opts Options) *Registry {
	deps = deps.WithDefaults()

	rl := ratelimit.NewTester(deps)
	if opts.BurstSize > 0 {
		rl.Requests = opts.BurstSize
	}
	soapT := soap.NewTester(deps)
	gql := graphql.NewTester(deps)

	return NewRegistry(
		Entry{target.REST, "sql", sqli.NewTester(deps, opts.SQLi)},
		Entry{target.REST, "xss", xss.NewTester(deps)},
		Entry{target.REST, "ssrf", ssrf.NewTester(deps)},
		Entry{target.REST, "rate_limit", rl},

		Entry{target.SOAP, "sql", probe.Func{ProbeName: soap.TestSQL, Fn: soapT.SQL}},
		Entry{target.SOAP, "xss", probe.Func{ProbeName: soap.TestXSS, Fn: soapT.XSS}},
		Entry{target.SOAP, "ssrf", probe.Func{ProbeName: soap.TestSSRF, Fn: soapT.SSRF}},
		Entry{target.SOAP, "xxe", xxe.NewTester(deps)},
		Entry{target.SOAP, "rate_limit", rl},

		Entry{target.GraphQL, "introspection", probe.Func{ProbeName: graphql.TestIntrospection, Fn: gql.Introspection}},
		Entry{target.GraphQL, "sql", probe.Func{ProbeName: graphql.TestSQL, Fn: gql.SQL}},
		Entry{target.GraphQL, "xss", probe.Func{ProbeName: graphql.TestXSS, Fn: gql.XSS}},
		Entry{target.GraphQL, "dos", probe.Func{ProbeName: graphql.TestDoS, Fn: gql.DoS}},
		Entry{target.GraphQL, "rate_limit", rl},
	)
}

// Lookup returns the probe registered for (protocol, name).
func (r *Registry) Lookup(protocol target.Protocol, name string) (probe.Probe, bool) {
	p, ok := r.probes[key{protocol, name}]
	return p, ok
}

// Names returns the test names registered for protocol in registration
// order.
func (r *Registry) Names(protocol target.Protocol) []string {
	return append([]string(nil), r.order[protocol]...)
}

// Supports reports whether protocol has at least one probe.
func (r *Registry) Supports(protocol target.Protocol) bool {
	return len(r.order[protocol]) > 0
}

// Protocols returns the protocols with probes in registration order.
func (r *Registry) Protocols() []target.Protocol {
	return append([]target.Protocol(nil), r.protos...)
}

// Resolve returns the requested names that have a probe for protocol,
// in request order with duplicates kept.
func (r *Registry) Resolve(protocol target.Protocol, requested []string) []string {
	var out []string
	for _, name := range requested {
		if _, ok := r.Lookup(protocol, name); ok {
			out = append(out, name)
		}
	}
	return out
}
