package target

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a YAML target file.
// Returns ErrTargetNotFound if the file doesn't exist and
// ErrInvalidTarget if it is malformed.
func Load(path string) (*Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, path)
		}
		return nil, fmt.Errorf("reading target file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML target.
func Parse(data []byte) (*Target, error) {
	var t Target
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	t.Protocol = ParseProtocol(string(t.Protocol))
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// UnmarshalYAML accepts params either as a mapping, kept in document
// order, or as a list of {key, value} pairs.
func (p *Params) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		var out Params
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if _, dup := out.Get(k.Value); dup {
				return fmt.Errorf("duplicate parameter %q", k.Value)
			}
			out = out.With(k.Value, v.Value)
		}
		*p = out
		return nil
	case yaml.SequenceNode:
		var list []Param
		if err := n.Decode(&list); err != nil {
			return err
		}
		*p = Params(list)
		return nil
	default:
		return fmt.Errorf("params must be a mapping or a list")
	}
}

// UnmarshalYAML reads a scalar body as opaque text and anything else as
// a structured value.
func (b *Body) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		b.Text = n.Value
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	b.JSON = v
	return nil
}
