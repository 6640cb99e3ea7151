package sink

import (
	"regexp"
	"strings"

	"github.com/gorilla/css/scanner"
)

var styleElement = regexp.MustCompile(`(?is)(<style\b[^>]*>)(.*?)(</style\s*>)`)

// scopeStyles rewrites every <style> element in markup so that its rules only
// match inside the element with the given id.
func scopeStyles(id, markup string) string {
	if !strings.Contains(strings.ToLower(markup), "<style") {
		return markup
	}
	return styleElement.ReplaceAllStringFunc(markup, func(m string) string {
		parts := styleElement.FindStringSubmatch(m)
		open, css, end := parts[1], parts[2], parts[3]

		trimmed := strings.TrimSpace(css)
		if strings.HasPrefix(trimmed, "<![CDATA[") && strings.HasSuffix(trimmed, "]]>") {
			inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "<![CDATA["), "]]>")
			return open + "<![CDATA[" + scopeCSS(id, inner) + "]]>" + end
		}
		return open + scopeCSS(id, css) + end
	})
}

// scopeCSS prefixes every selector in css with #id. Rules nested in grouping
// at-rules are scoped too; the blocks of other at-rules are copied as is.
func scopeCSS(id, css string) string {
	var b strings.Builder
	scopeRules(&b, scanner.New(css), "#"+id+" ", false)
	return b.String()
}

// groupingRules hold style rules in their blocks.
var groupingRules = map[string]bool{
	"@media":     true,
	"@supports":  true,
	"@container": true,
	"@layer":     true,
	"@document":  true,
}

// scopeRules copies rules from s until EOF, or until the closing brace of the
// enclosing block when nested. Input the scanner rejects is dropped.
func scopeRules(b *strings.Builder, s *scanner.Scanner, prefix string, nested bool) {
	var prelude []*scanner.Token
	for {
		tok := s.Next()
		switch {
		case tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError:
			writeTokens(b, prelude)
			if nested {
				b.WriteString("}")
			}
			return
		case isChar(tok, "}"):
			writeTokens(b, prelude)
			if nested {
				b.WriteString("}")
				return
			}
			prelude = nil
		case isChar(tok, ";"):
			writeTokens(b, prelude)
			b.WriteString(";")
			prelude = nil
		case isChar(tok, "{"):
			if at := atKeyword(prelude); at != "" {
				writeTokens(b, prelude)
				b.WriteString("{")
				if groupingRules[strings.ToLower(at)] {
					scopeRules(b, s, prefix, true)
				} else {
					copyBlock(b, s)
				}
			} else {
				writeSelectors(b, prelude, prefix)
				b.WriteString(" {")
				copyBlock(b, s)
			}
			prelude = nil
		default:
			prelude = append(prelude, tok)
		}
	}
}

// copyBlock copies declarations up to and including the matching brace.
func copyBlock(b *strings.Builder, s *scanner.Scanner) {
	depth := 1
	for {
		tok := s.Next()
		switch {
		case tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError:
			b.WriteString(strings.Repeat("}", depth))
			return
		case isChar(tok, "{"):
			depth++
		case isChar(tok, "}"):
			depth--
			if depth == 0 {
				b.WriteString("}")
				return
			}
		}
		b.WriteString(tok.Value)
	}
}

// writeSelectors writes a selector list with prefix in front of each item.
func writeSelectors(b *strings.Builder, prelude []*scanner.Token, prefix string) {
	var (
		items []string
		cur   strings.Builder
	)
	flush := func() {
		if sel := strings.TrimSpace(cur.String()); sel != "" {
			items = append(items, prefix+sel)
		}
		cur.Reset()
	}
	for _, tok := range prelude {
		switch {
		case tok.Type == scanner.TokenComment:
		case isChar(tok, ","):
			flush()
		default:
			cur.WriteString(tok.Value)
		}
	}
	flush()
	b.WriteString(strings.Join(items, ", "))
}

func writeTokens(b *strings.Builder, toks []*scanner.Token) {
	for _, tok := range toks {
		b.WriteString(tok.Value)
	}
}

func atKeyword(prelude []*scanner.Token) string {
	for _, tok := range prelude {
		switch tok.Type {
		case scanner.TokenS, scanner.TokenComment:
			continue
		case scanner.TokenAtKeyword:
			return tok.Value
		}
		return ""
	}
	return ""
}

func isChar(tok *scanner.Token, c string) bool {
	return tok.Type == scanner.TokenChar && tok.Value == c
}
