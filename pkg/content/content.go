// Package content maps the opaque content references carried by cells to
// renderable fragments.
//
// The layout resolver never interprets a cell's Content string. Hosts decide
// what a reference means by handing a [Registry] to a sink. There is no
// global registry; callers construct one explicitly:
//
//	reg := content.Map{
//	    "Header": {Type: content.TypeText, Body: "Welcome"},
//	    "Logo":   {Type: content.TypeSVG, Body: `<svg ...>...</svg>`},
//	}
//	frag, err := reg.Lookup("Header")
//
// Registry files in YAML, JSON or TOML can be loaded with [Load].
package content

import (
	"errors"
	"fmt"
	"strings"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
)

// Type identifies how a fragment body is interpreted by a sink.
type Type string

const (
	TypeText Type = "text" // plain text, escaped by sinks
	TypeHTML Type = "html" // trusted markup, inserted verbatim
	TypeSVG  Type = "svg"  // trusted SVG markup, inserted verbatim
)

// ParseType parses a fragment type name. The empty string means text.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeText, nil
	case TypeText, TypeHTML, TypeSVG:
		return t, nil
	default:
		return "", glerr.New(glerr.ErrCodeInvalidInput, "unknown content type %q (must be text, html or svg)", s)
	}
}

// Fragment is renderable content for one cell.
type Fragment struct {
	Type Type   `json:"type" yaml:"type" toml:"type"`
	Body string `json:"body" yaml:"body" toml:"body"`
}

// Text returns a plain-text fragment.
func Text(body string) Fragment { return Fragment{Type: TypeText, Body: body} }

// Registry resolves content references.
//
// Lookup returns an error built by [Unknown] for references it does not
// know, so that [IsUnknown] holds. Implementations must be safe for concurrent
// use.
type Registry interface {
	Lookup(ref string) (Fragment, error)
}

// unknownRef is the cause of every unknown reference error.
type unknownRef string

func (r unknownRef) Error() string {
	return fmt.Sprintf("unknown content reference %q", string(r))
}

// Unknown returns the NOT_FOUND error a registry reports for ref. Each call
// builds a fresh error.
func Unknown(ref string) error {
	return glerr.Wrap(glerr.ErrCodeNotFound, unknownRef(ref), "lookup content")
}

// Map is an in-memory registry. A nil Map knows no references.
type Map map[string]Fragment

// Lookup implements Registry.
func (m Map) Lookup(ref string) (Fragment, error) {
	f, ok := m[ref]
	if !ok {
		return Fragment{}, Unknown(ref)
	}
	return f, nil
}

// Refs returns the number of references in the map.
func (m Map) Refs() int { return len(m) }

// Func adapts an ordinary function to the Registry interface.
type Func func(ref string) (Fragment, error)

// Lookup implements Registry.
func (f Func) Lookup(ref string) (Fragment, error) { return f(ref) }

// Chain consults registries in order and returns the first hit. Errors other
// than unknown references stop the search.
func Chain(regs ...Registry) Registry {
	return Func(func(ref string) (Fragment, error) {
		for _, r := range regs {
			if r == nil {
				continue
			}
			f, err := r.Lookup(ref)
			if err == nil {
				return f, nil
			}
			if !IsUnknown(err) {
				return Fragment{}, err
			}
		}
		return Fragment{}, Unknown(ref)
	})
}

// Fallback wraps r so that unknown references resolve to the fragment built
// by placeholder instead of failing. A nil placeholder uses [Placeholder].
func Fallback(r Registry, placeholder func(ref string) Fragment) Registry {
	if placeholder == nil {
		placeholder = Placeholder
	}
	return Func(func(ref string) (Fragment, error) {
		if r != nil {
			f, err := r.Lookup(ref)
			if err == nil || !IsUnknown(err) {
				return f, err
			}
		}
		return placeholder(ref), nil
	})
}

// Placeholder returns a text fragment naming the missing reference.
func Placeholder(ref string) Fragment {
	if ref == "" {
		return Text("")
	}
	return Text("[" + ref + "]")
}

// IsUnknown reports whether err means the reference is not registered.
func IsUnknown(err error) bool {
	var r unknownRef
	return errors.As(err, &r)
}
