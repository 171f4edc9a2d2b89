// Package payloads holds the attack strings used by the probes, indexed
// by vulnerability class and protocol.
//
// The catalog is built once and never mutated. Iteration order is part of
// its contract: probes walk payloads in catalog order and stop at the
// first positive match, so reordering a table changes scan results.
package payloads

import "github.com/waftester/apiprobe/pkg/target"

// Class is a vulnerability class.
type Class string

const (
	SQL     Class = "sql"
	XSS     Class = "xss"
	SSRF    Class = "ssrf"
	GraphQL Class = "graphql"
)

// Payload is one attack string. Name is set for payloads that are looked
// up individually, such as the GraphQL queries.
type Payload struct {
	Name        string `json:"name,omitempty"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

func (p Payload) String() string { return p.Value }

// Names of the individual GraphQL payloads.
const (
	GraphQLIntrospection = "introspection"
	GraphQLSQLInjection  = "sql_injection"
	GraphQLXSS           = "xss"
	GraphQLDoS           = "dos"
)

// key indexes the catalog. An empty protocol means "any protocol".
type key struct {
	class    Class
	protocol target.Protocol
}
