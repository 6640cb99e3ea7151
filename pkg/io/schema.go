package io

import (
	"bytes"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// ReadSchema decodes a schema document in the given format from r.
//
// Syntax errors and trailing data are INVALID_FORMAT. A number of the wrong
// type is reported where it sits, as VIEWPORT or CELL_BOUNDS, together with
// every other such number in the document. The returned schema may still be
// invalid; pass it to layout.Validate or layout.Resolve to find out.
// ReadSchema does not close r.
func ReadSchema(r io.Reader, format Format) (*schema.Schema, error) {
	var (
		doc schemaDoc
		err error
	)
	switch format {
	case FormatJSON:
		// Unmarshal rejects anything after the top-level value.
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			err = json.Unmarshal(data, &doc)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		if err = dec.Decode(&doc); err == io.EOF {
			err = nil
		} else if err == nil {
			var extra yaml.Node
			if dec.Decode(&extra) != io.EOF {
				return nil, glerr.New(glerr.ErrCodeInvalidFormat, "decode yaml schema: expected a single document")
			}
		}
	case FormatTOML:
		doc, err = decodeTOML(r)
	default:
		return nil, glerr.New(glerr.ErrCodeInvalidFormat, "unknown schema format %q", format)
	}
	if err != nil {
		return nil, glerr.Wrap(glerr.ErrCodeInvalidFormat, err, "decode %s schema", format)
	}
	return doc.toSchema()
}

// UnmarshalSchema decodes a schema document from data.
func UnmarshalSchema(data []byte, format Format) (*schema.Schema, error) {
	return ReadSchema(bytes.NewReader(data), format)
}

// ImportSchema reads the schema file at path, inferring the format from the
// file extension. Errors are wrapped with the path for context.
func ImportSchema(path string) (*schema.Schema, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadSchema(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteSchema encodes s in the given format. JSON and YAML keep cell order;
// TOML sorts cells by name. Nil layers and cells are skipped, and
// non-finite numbers are omitted.
func WriteSchema(w io.Writer, s *schema.Schema, format Format) error {
	doc := fromSchema(s)
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := encodeTOML(w, doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	default:
		return glerr.New(glerr.ErrCodeInvalidFormat, "unknown schema format %q", format)
	}
}

// ExportSchema writes s to path, inferring the format from the extension.
func ExportSchema(s *schema.Schema, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteSchema(&buf, s, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// MarshalSchema returns the compact canonical JSON encoding of s. Equal
// schemas produce equal bytes, so the output can be hashed for cache keys.
func MarshalSchema(s *schema.Schema) ([]byte, error) {
	return json.Marshal(fromSchema(s))
}
