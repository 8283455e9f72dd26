// Package richtext splits a single line of inline markdown into flat styled
// spans.
package richtext

import (
	"regexp"
	"strings"
)

// Kind is the style of a span.
type Kind string

const (
	Plain  Kind = "plain"
	Bold   Kind = "bold"
	Italic Kind = "italic"
	Code   Kind = "code"
	Link   Kind = "link"
)

// Span is a run of text with a single style. URL is set only for links.
type Span struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// inlineRe matches the supported inline constructs. Alternation order is the
// priority order: bold, code, link, then the two italic forms.
var inlineRe = regexp.MustCompile(
	`\*\*(.+?)\*\*` + // 1: bold
		"|`(.+?)`" + // 2: code
		`|\[([^\]]+)\]\(([^)]+)\)` + // 3,4: link
		`|\*(.+?)\*` + // 5: italic
		`|_(.+?)_`, // 6: italic
)

// Tokenize splits text into spans. Unmatched text between constructs becomes
// plain spans; nested styles are not recognized.
func Tokenize(text string) []Span {
	if text == "" {
		return nil
	}

	var out []Span
	pos := 0
	for _, m := range inlineRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > pos {
			out = append(out, Span{Kind: Plain, Text: text[pos:m[0]]})
		}
		out = append(out, spanFor(text, m))
		pos = m[1]
	}
	if pos < len(text) {
		out = append(out, Span{Kind: Plain, Text: text[pos:]})
	}
	return out
}

func spanFor(text string, m []int) Span {
	group := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return text[m[2*i]:m[2*i+1]], true
	}

	if s, ok := group(1); ok {
		return Span{Kind: Bold, Text: s}
	}
	if s, ok := group(2); ok {
		return Span{Kind: Code, Text: s}
	}
	if s, ok := group(3); ok {
		u, _ := group(4)
		return Span{Kind: Link, Text: s, URL: u}
	}
	if s, ok := group(5); ok {
		return Span{Kind: Italic, Text: s}
	}
	s, _ := group(6)
	return Span{Kind: Italic, Text: s}
}

// PlainText concatenates the text of spans, dropping styling.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
