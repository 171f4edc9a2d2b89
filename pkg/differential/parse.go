package differential

import (
	"github.com/waftester/apiprobe/pkg/jsonutil"
)

// ParseKind says how a body was understood.
type ParseKind int

const (
	// Opaque bodies do not look like JSON at all.
	Opaque ParseKind = iota
	// Structured bodies decoded as JSON.
	Structured
	// ParseFailed bodies look like JSON but do not decode.
	ParseFailed
)

func (k ParseKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case ParseFailed:
		return "parse-failed"
	default:
		return "opaque"
	}
}

// Parsed is the outcome of Parse. Value is set only when Kind is
// Structured.
type Parsed struct {
	Kind  ParseKind
	Value any
}

// Keys returns the top-level keys of a structured object.
func (p Parsed) Keys() (map[string]struct{}, bool) {
	obj, ok := p.Value.(map[string]any)
	if p.Kind != Structured || !ok {
		return nil, false
	}
	keys := make(map[string]struct{}, len(obj))
	for k := range obj {
		keys[k] = struct{}{}
	}
	return keys, true
}

// Len returns the element count of a structured array.
func (p Parsed) Len() (int, bool) {
	arr, ok := p.Value.([]any)
	if p.Kind != Structured || !ok {
		return 0, false
	}
	return len(arr), true
}

// Parse decodes body as JSON without ever failing.
func Parse(body string) Parsed {
	data := []byte(body)
	if !jsonutil.LooksLikeJSON(data) {
		return Parsed{Kind: Opaque}
	}
	var v any
	if err := jsonutil.Unmarshal(data, &v); err != nil {
		return Parsed{Kind: ParseFailed}
	}
	return Parsed{Kind: Structured, Value: v}
}
