package layout

import (
	"regexp"
	"strings"
)

// Span is a run of text with uniform emphasis.
type Span struct {
	Text string
	Bold bool
}

var (
	breakTagPattern = regexp.MustCompile(`(?i)<br\s*/?>`)
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// NormalizeInline converts body text into lines of spans: explicit break
// markers become line boundaries and **text** spans become bold runs. No
// other inline markup is recognized; unmatched markers stay literal.
func NormalizeInline(text string) [][]Span {
	parts := breakTagPattern.Split(text, -1)
	lines := make([][]Span, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, splitBold(part))
	}
	return lines
}

func splitBold(s string) []Span {
	var spans []Span
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: s[last:m[0]]})
		}
		spans = append(spans, Span{Text: s[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(s) || len(spans) == 0 {
		spans = append(spans, Span{Text: s[last:]})
	}
	return spans
}

// PlainLine renders one span line back to plain text, dropping emphasis.
func PlainLine(line []Span) string {
	var b strings.Builder
	for _, s := range line {
		b.WriteString(s.Text)
	}
	return b.String()
}

// plainSpans wraps unformatted text as a single-line span list. Headings are
// rendered verbatim, without inline markup interpretation.
func plainSpans(text string) [][]Span {
	return [][]Span{{Span{Text: text}}}
}
