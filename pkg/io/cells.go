package io

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// UnmarshalJSON decodes a JSON object key by key so that authoring order and
// duplicated keys survive decoding.
func (c *cellsDoc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cells must be an object, got %v", tok)
	}

	var out cellsDoc
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected cell key %v", keyTok)
		}
		var cd cellDoc
		if err := dec.Decode(&cd); err != nil {
			return fmt.Errorf("cell %q: %w", name, err)
		}
		out = append(out, namedCell{Name: name, Cell: cd})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalJSON encodes the cells as a JSON object in slice order.
func (c cellsDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nc.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(nc.Cell)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", nc.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML walks the mapping node directly; decoding into a Go map
// would reject duplicated keys and lose their order.
func (c *cellsDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*c = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: cells must be a mapping", value.Line)
	}

	out := make(cellsDoc, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		var cd cellDoc
		if err := val.Decode(&cd); err != nil {
			return fmt.Errorf("cell %q: %w", key.Value, err)
		}
		out = append(out, namedCell{Name: key.Value, Cell: cd})
	}

	*c = out
	return nil
}

// MarshalYAML encodes the cells as a mapping in slice order.
func (c cellsDoc) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, nc := range c {
		var val yaml.Node
		if err := val.Encode(nc.Cell); err != nil {
			return nil, fmt.Errorf("cell %q: %w", nc.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: nc.Name},
			&val,
		)
	}
	return node, nil
}
