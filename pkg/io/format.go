package io

import (
	"path/filepath"
	"strings"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
)

// Format is a schema document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var formatByExt = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
}

// DetectFormat infers the document format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatByExt[ext]; ok {
		return f, nil
	}
	return "", glerr.New(glerr.ErrCodeInvalidFormat, "cannot infer schema format from %q (use .json, .yaml, .yml or .toml)", path)
}

// ParseFormat parses a format name such as "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	if f, ok := formatByExt["."+strings.ToLower(s)]; ok {
		return f, nil
	}
	return "", glerr.New(glerr.ErrCodeInvalidFormat, "unknown schema format %q (must be json, yaml or toml)", s)
}
