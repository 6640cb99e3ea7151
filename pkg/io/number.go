package io

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// number is a schema number as written in a document. A value of the wrong
// type does not fail decoding; it is kept in raw so the error can name the
// layer, cell and field it belongs to.
type number struct {
	value   float64
	invalid bool
	raw     string
}

func num(v float64) *number { return &number{value: v} }

func (n *number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = number{value: nan}
		return nil
	}
	if err := json.Unmarshal(data, &n.value); err != nil {
		*n = number{invalid: true, raw: string(data)}
	}
	return nil
}

func (n number) MarshalJSON() ([]byte, error) { return json.Marshal(n.value) }

func (n *number) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&n.value); err != nil {
		*n = number{invalid: true, raw: node.Value}
		if node.Kind != yaml.ScalarNode {
			n.raw = "a " + yamlKind(node.Kind)
		}
	}
	return nil
}

func (n number) MarshalYAML() (any, error) { return n.value, nil }

// UnmarshalTOML accepts TOML floats and integers.
func (n *number) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case float64:
		n.value = x
	case int64:
		n.value = float64(x)
	default:
		*n = number{invalid: true, raw: fmt.Sprintf("%v", v)}
	}
	return nil
}

// MarshalTOML always writes a float literal so integral values read back as
// floats.
func (n number) MarshalTOML() ([]byte, error) {
	s := strconv.FormatFloat(n.value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func yamlKind(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
