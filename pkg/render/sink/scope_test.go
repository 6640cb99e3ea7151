package sink

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/matzehuels/gridlookout/pkg/content"
)

func TestScopeCSS(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want string
	}{
		{"type selector", "circle { fill: red }", "#c circle { fill: red }"},
		{"selector list", ".a, .b:hover{stroke:blue}", "#c .a, #c .b:hover {stroke:blue}"},
		{"comment", "/* dots */ circle {}", "#c circle {}"},
		{"media", "@media print { rect { fill: none } }", "@media print {#c rect { fill: none } }"},
		{"font face", "@font-face { font-family: x }", "@font-face { font-family: x }"},
		{"import", "@import url(a.css); p{}", "@import url(a.css);#c p {}"},
		{"unclosed", "p { color: red", "#c p { color: red}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scopeCSS("c", tt.css); got != tt.want {
				t.Errorf("scopeCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScopeStyles(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"no style", `<circle r="1"/>`, `<circle r="1"/>`},
		{"attributes", `<style type="text/css">g{}</style><g/>`, `<style type="text/css">#x g {}</style><g/>`},
		{"cdata", `<STYLE><![CDATA[ g{} ]]></STYLE>`, `<STYLE><![CDATA[#x g {} ]]></STYLE>`},
		{"two elements", `<style>a{}</style><style>b{}</style>`, `<style>#x a {}</style><style>#x b {}</style>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scopeStyles("x", tt.markup); got != tt.want {
				t.Errorf("scopeStyles() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSVGScopesContentStyles(t *testing.T) {
	reg := content.Map{
		"Header": {Type: content.TypeSVG, Body: `<style>circle { fill: red }</style><circle cx="5" cy="5" r="5"/>`},
		"Nav":    {Type: content.TypeHTML, Body: `<style>li, p { color: red }</style><ul><li>one</li></ul>`},
	}
	l := testLayout()
	l.Layers = l.Layers[:1]

	svg := RenderSVG(l, WithContent(reg))
	if err := xml.Unmarshal(svg, new(struct{ XMLName xml.Name })); err != nil {
		t.Fatalf("SVG is not well-formed XML: %v\n%s", err, svg)
	}

	s := string(svg)
	for _, want := range []string{
		`<style>#gl-0-0 circle { fill: red }</style>`,
		`<style>#gl-0-1 li, #gl-0-1 p { color: red }</style>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("SVG missing %q\n%s", want, s)
		}
	}
	if strings.Contains(s, "<style>circle") || strings.Contains(s, "<style>li") {
		t.Error("content style left unscoped")
	}
}
