package journal

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Render serializes e as a front-matter header followed by a blank line and
// the body. The header always carries title and date first, then the keys of
// PreferredOrder, then the rest in encounter order.
func Render(e *Entry) ([]byte, error) {
	md := NewMetadata()
	md.Set(KeyTitle, e.Title)
	md.Set(KeyDate, Today(e.Date))
	for _, k := range e.Metadata.Keys() {
		v, _ := e.Metadata.Get(k)
		md.Set(k, v)
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range md.Ordered() {
		v, _ := md.Get(k)
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			valueNode(v),
		)
	}

	var buf bytes.Buffer
	buf.WriteString(headerDelim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("journal: encode header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("journal: encode header: %w", err)
	}
	buf.WriteString(headerDelim + "\n")
	if e.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(e.Body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// valueNode builds the YAML node for a metadata value. Strings are tagged so
// that values which look like numbers or timestamps are quoted.
func valueNode(v any) *yaml.Node {
	switch t := v.(type) {
	case *yaml.Node:
		return t
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: t.Format(DateLayout)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(t)}
	}
}
