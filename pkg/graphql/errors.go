package graphql

import (
	"errors"
	"fmt"
)

// ErrUnknownPayload indicates the catalog lacks a named GraphQL query.
var ErrUnknownPayload = errors.New("graphql: payload not in catalog")

func errUnknownPayload(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownPayload, name)
}
