package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/corey/dakota/internal/ports"
)

// LoadPatterns reads a pattern file. The document is either a mapping of
// names to values or a sequence of {name, value} entries. Entries keep
// their file order.
func LoadPatterns(path string) ([]ports.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	patterns, err := DecodePatterns(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patterns, nil
}

// DecodePatterns decodes a pattern document from r.
func DecodePatterns(r io.Reader) ([]ports.Pattern, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		out := make([]ports.Pattern, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			k, v := root.Content[i], root.Content[i+1]
			if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: pattern names and values must be scalars", k.Line)
			}
			out = append(out, ports.Pattern{Name: k.Value, Value: v.Value})
		}
		return out, nil

	case yaml.SequenceNode:
		var out []ports.Pattern
		if err := root.Decode(&out); err != nil {
			return nil, err
		}
		for i, p := range out {
			if p.Name == "" {
				return nil, fmt.Errorf("line %d: entry without name", root.Content[i].Line)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: expected a mapping or a sequence of patterns", root.Line)
}

// EncodePatterns writes patterns as a YAML mapping. Values that would read
// back as another type ("1", "true", "") are quoted.
func EncodePatterns(w io.Writer, patterns []ports.Pattern) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range patterns {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Value},
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
