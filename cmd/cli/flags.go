package main

import (
	"fmt"
	"strings"

	"github.com/waftester/apiprobe/pkg/target"
)

// headerSlice implements flag.Value for repeated -H flags.
// Does not split on commas since header values may contain them.
type headerSlice []string

func (h *headerSlice) String() string { return strings.Join(*h, "; ") }

func (h *headerSlice) Set(value string) error {
	*h = append(*h, value)
	return nil
}

// Map parses "Name: value" entries.
func (h headerSlice) Map() (map[string]string, error) {
	if len(h) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(h))
	for _, raw := range h {
		name, value, ok := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Name: value\")", raw)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// paramSlice implements flag.Value for repeated -p key=value flags,
// keeping command-line order.
type paramSlice []string

func (p *paramSlice) String() string { return strings.Join(*p, "&") }

func (p *paramSlice) Set(value string) error {
	*p = append(*p, value)
	return nil
}

// Params parses the key=value entries. A repeated key keeps its first
// position and takes the last value.
func (p paramSlice) Params() (target.Params, error) {
	var out target.Params
	for _, raw := range p {
		k, v, ok := strings.Cut(raw, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", raw)
		}
		out = out.With(k, v)
	}
	return out, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
