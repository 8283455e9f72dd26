package links

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Marker is the text of the link appended after a rewritten link. It points
// back at the original internal page.
const Marker = "🄽"

var (
	mdLinkRe  = regexp.MustCompile(`!?\[([^\]]+)\]\(\s*(<[^>\s]+>|[^)\s]+)(\s+(?:"[^"]*"|'[^']*'|\([^)]*\)))?\s*\)`)
	bareURLRe = regexp.MustCompile(`<https?://[^\s<>]+>|https?://[^\s<>()\[\]]+`)
)

// MissingLink is an internal link that could not be resolved, with enough
// context for a human (or a model) to find the right target.
type MissingLink struct {
	Text        string `json:"text"`
	URL         string `json:"url"`
	Context     string `json:"context"`
	PageTitle   string `json:"page_title,omitempty"`
	PageSnippet string `json:"page_snippet,omitempty"`
}

// Rewriter rewrites internal links in markdown bodies.
type Rewriter struct {
	resolver *Resolver
	md       goldmark.Markdown
}

// NewRewriter creates a Rewriter backed by resolver.
func NewRewriter(resolver *Resolver) *Rewriter {
	return &Rewriter{
		resolver: resolver,
		md:       goldmark.New(goldmark.WithExtensions(extension.Linkify)),
	}
}

// Rewrite replaces every resolvable internal link with
// "[text](target) [🄽](original)" and reports the links it could not resolve.
// Inline links keep their title. Bare and angle-bracket URLs become
// "target [🄽](original)". Everything else in body, including links inside
// code, is left byte for byte.
func (w *Rewriter) Rewrite(ctx context.Context, body string) (string, []MissingLink) {
	doc := indexDocument(w.md, []byte(body))

	var b strings.Builder
	var missing []MissingLink
	last := 0
	for _, o := range linkOccurrences(body, doc) {
		res := w.resolver.Resolve(ctx, o.dest)
		switch res.State {
		case Rewritten:
			b.WriteString(body[last:o.start])
			b.WriteString(o.replacement(res.Target))
			last = o.end
		case Unresolved:
			missing = append(missing, MissingLink{
				Text:        o.label,
				URL:         o.dest,
				Context:     doc.contextAt(o.start, body),
				PageTitle:   res.Title,
				PageSnippet: res.Snippet,
			})
		}
	}
	b.WriteString(body[last:])
	return b.String(), missing
}

// occurrence is one rewritable link in a body, by byte range.
type occurrence struct {
	start, end int
	label      string
	dest       string
	title      string
	auto       bool
	angle      bool
}

func (o occurrence) replacement(target string) string {
	marker := fmt.Sprintf("[%s](%s)", Marker, o.dest)
	switch {
	case o.angle:
		return "<" + target + "> " + marker
	case o.auto:
		return target + " " + marker
	case o.title != "":
		return fmt.Sprintf("[%s](%s %s) %s", o.label, target, o.title, marker)
	default:
		return fmt.Sprintf("[%s](%s) %s", o.label, target, marker)
	}
}

// linkOccurrences returns inline links and bare URLs outside code, in
// document order. Images, marker links and URLs inside a link are skipped.
func linkOccurrences(body string, doc *docIndex) []occurrence {
	var out []occurrence
	var links []span
	for _, m := range mdLinkRe.FindAllStringSubmatchIndex(body, -1) {
		links = append(links, span{start: m[0], stop: m[1]})
		if body[m[0]] == '!' || doc.inCode(m[0]) {
			continue
		}
		label := body[m[2]:m[3]]
		if label == Marker {
			continue
		}
		o := occurrence{start: m[0], end: m[1], label: label, dest: strings.Trim(body[m[4]:m[5]], "<>")}
		if m[6] >= 0 {
			o.title = strings.TrimSpace(body[m[6]:m[7]])
		}
		out = append(out, o)
	}

	for _, m := range bareURLRe.FindAllStringIndex(body, -1) {
		start, end := m[0], m[1]
		if within(links, start) || doc.inCode(start) {
			continue
		}
		angle := body[start] == '<'
		if !angle {
			end = start + len(strings.TrimRight(body[start:end], ".,;:!?'\"*_~"))
		}
		dest := strings.Trim(body[start:end], "<>")
		out = append(out, occurrence{start: start, end: end, label: dest, dest: dest, auto: true, angle: angle})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func within(spans []span, pos int) bool {
	for _, s := range spans {
		if pos >= s.start && pos < s.stop {
			return true
		}
	}
	return false
}

type span struct {
	start, stop int
	text        string
}

// docIndex holds byte ranges of code and of text-bearing blocks.
type docIndex struct {
	code   []span
	blocks []span
}

func indexDocument(md goldmark.Markdown, src []byte) *docIndex {
	idx := &docIndex{}
	root := md.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			if s, ok := lineSpan(n, src); ok {
				idx.code = append(idx.code, s)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeSpan:
			if s, ok := inlineSpan(n); ok {
				idx.code = append(idx.code, s)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindTextBlock, ast.KindHeading:
			if s, ok := lineSpan(n, src); ok {
				idx.blocks = append(idx.blocks, s)
			}
		}
		return ast.WalkContinue, nil
	})
	return idx
}

func (d *docIndex) inCode(pos int) bool {
	return within(d.code, pos)
}

// contextAt returns the text of the smallest block containing pos, or the
// source line when no block does.
func (d *docIndex) contextAt(pos int, body string) string {
	best := -1
	for i, s := range d.blocks {
		if pos < s.start || pos >= s.stop {
			continue
		}
		if best < 0 || s.stop-s.start < d.blocks[best].stop-d.blocks[best].start {
			best = i
		}
	}
	if best >= 0 {
		return d.blocks[best].text
	}
	lineStart := strings.LastIndexByte(body[:pos], '\n') + 1
	lineEnd := strings.IndexByte(body[pos:], '\n')
	if lineEnd < 0 {
		return strings.TrimSpace(body[lineStart:])
	}
	return strings.TrimSpace(body[lineStart : pos+lineEnd])
}

func lineSpan(n ast.Node, src []byte) (span, bool) {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return span{}, false
	}
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if p := strings.TrimSpace(string(seg.Value(src))); p != "" {
			parts = append(parts, p)
		}
	}
	return span{
		start: lines.At(0).Start,
		stop:  lines.At(lines.Len() - 1).Stop,
		text:  strings.Join(parts, " "),
	}, true
}

func inlineSpan(n ast.Node) (span, bool) {
	s := span{start: -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		if s.start < 0 {
			s.start = t.Segment.Start
		}
		s.stop = t.Segment.Stop
	}
	return s, s.start >= 0
}
