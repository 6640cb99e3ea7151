package content

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
)

// Load reads a registry file mapping references to fragments. The format is
// inferred from the extension (.yaml, .yml, .json or .toml):
//
//	Header:
//	  type: text
//	  body: Welcome
//	Logo:
//	  type: svg
//	  body: <svg viewBox="0 0 10 10"><circle r="5" cx="5" cy="5"/></svg>
//
// A missing type defaults to text.
func Load(path string) (Map, error) {
	format, err := pkgio.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes registry data in the given format.
func Parse(data []byte, format pkgio.Format) (Map, error) {
	raw := map[string]Fragment{}
	var err error
	switch format {
	case pkgio.FormatJSON:
		err = json.Unmarshal(data, &raw)
	case pkgio.FormatYAML:
		err = yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
		if err != nil && len(bytes.TrimSpace(data)) == 0 {
			err = nil
		}
	case pkgio.FormatTOML:
		_, err = toml.Decode(string(data), &raw)
	default:
		return nil, glerr.New(glerr.ErrCodeInvalidFormat, "unknown registry format %q", format)
	}
	if err != nil {
		return nil, glerr.Wrap(glerr.ErrCodeInvalidFormat, err, "decode %s registry", format)
	}

	m := make(Map, len(raw))
	for ref, f := range raw {
		t, err := ParseType(string(f.Type))
		if err != nil {
			return nil, fmt.Errorf("reference %q: %w", ref, err)
		}
		m[ref] = Fragment{Type: t, Body: f.Body}
	}
	return m, nil
}
