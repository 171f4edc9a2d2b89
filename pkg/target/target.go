// Package target describes what a scan is pointed at: the protocol, the
// endpoint and the request shape that probes mutate.
package target

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/waftester/apiprobe/pkg/defaults"
)

// Protocol is the API family of a target.
type Protocol string

const (
	REST    Protocol = "REST"
	SOAP    Protocol = "SOAP"
	GraphQL Protocol = "GraphQL"
)

// Protocols lists the supported protocols in display order.
var Protocols = []Protocol{REST, SOAP, GraphQL}

// ParseProtocol maps a user spelling onto a Protocol. Unknown spellings
// are returned verbatim so callers can still report them.
func ParseProtocol(s string) Protocol {
	s = strings.TrimSpace(s)
	for _, p := range Protocols {
		if strings.EqualFold(s, string(p)) {
			return p
		}
	}
	return Protocol(s)
}

// Supported reports whether p is one of the known protocols.
func (p Protocol) Supported() bool {
	switch p {
	case REST, SOAP, GraphQL:
		return true
	}
	return false
}

func (p Protocol) String() string { return string(p) }

// Param is one query parameter.
type Param struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Params is an ordered set of query parameters with unique keys.
// Order matters: the first parameter is the SQL injection point.
type Params []Param

// ParamsOf builds Params from alternating key/value pairs.
func ParamsOf(kv ...string) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		p = p.With(kv[i], kv[i+1])
	}
	return p
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// With returns a copy of p with key set to value. An existing key keeps
// its position; a new key is appended.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// First returns the first parameter.
func (p Params) First() (Param, bool) {
	if len(p) == 0 {
		return Param{}, false
	}
	return p[0], true
}

// Values converts p to url.Values for encoding.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Set(kv.Key, kv.Value)
	}
	return v
}

// Encode renders p as a query string in insertion order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Body is an optional request body: opaque text or a structured value
// that is sent as JSON. At most one of the two is set.
type Body struct {
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
	JSON any    `yaml:"json,omitempty" json:"json,omitempty"`
}

// IsZero reports whether no body is set.
func (b Body) IsZero() bool {
	return b.Text == "" && b.JSON == nil
}

// TextBody wraps s as an opaque body.
func TextBody(s string) Body { return Body{Text: s} }

// JSONBody wraps v as a structured body.
func JSONBody(v any) Body { return Body{JSON: v} }

// Target is the caller-supplied description of one scan. It is treated
// as immutable for the duration of the scan.
type Target struct {
	Protocol Protocol          `yaml:"protocol" json:"protocol"`
	URL      string            `yaml:"url" json:"url"`
	Method   string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params   Params            `yaml:"params,omitempty" json:"params,omitempty"`
	Body     Body              `yaml:"body,omitempty" json:"body,omitempty"`

	// Auth is carried for collaborators and never inspected.
	Auth map[string]string `yaml:"auth,omitempty" json:"auth,omitempty"`

	// Tests are the requested test names, in output order. Duplicates
	// are allowed.
	Tests []string `yaml:"tests,omitempty" json:"tests,omitempty"`

	// Owner attributes stored results. Opaque to the engine.
	Owner string `yaml:"owner,omitempty" json:"owner,omitempty"`
}

// New returns a target with default method and tests for protocol.
func New(protocol Protocol, rawURL string) *Target {
	t := &Target{Protocol: protocol, URL: rawURL}
	t.applyDefaults()
	return t
}

// applyDefaults fills the method (GET for REST, POST for the XML and
// GraphQL protocols) and the test selection.
func (t *Target) applyDefaults() {
	if t.Method == "" {
		t.Method = "GET"
		if t.Protocol == SOAP || t.Protocol == GraphQL {
			t.Method = "POST"
		}
	}
	t.Method = strings.ToUpper(t.Method)
	if len(t.Tests) == 0 {
		t.Tests = defaults.TestsFor(string(t.Protocol))
	}
}

// Validate checks the basic shape of the target. The protocol is not
// checked here: unsupported protocols are answered by the scanner.
func (t *Target) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidTarget)
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https, got %q", ErrInvalidTarget, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host", ErrInvalidTarget)
	}
	seen := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		if seen[p.Key] {
			return fmt.Errorf("%w: duplicate parameter %q", ErrInvalidTarget, p.Key)
		}
		seen[p.Key] = true
	}
	return nil
}
