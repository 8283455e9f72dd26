package links

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// RefKind classifies a reference found in markdown.
type RefKind string

const (
	RefInline RefKind = "inline"
	RefAuto   RefKind = "auto"
	RefImage  RefKind = "image"
)

// Reference is a link, bare URL or image found in a body.
type Reference struct {
	Kind RefKind `json:"kind"`
	Text string  `json:"text,omitempty"`
	URL  string  `json:"url"`
	Line int     `json:"line"`
}

// placeholderRe matches documentation placeholders that look like internal
// URLs but are safe to publish.
var placeholderRe = regexp.MustCompile(`(?i)notion\.so/[^/\s]+/(example-|abcdef123456abcdef123456abcdef12|\[32-char-hex-id\])`)

var scanner = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// Scan returns every link, autolink and image in body in document order.
func Scan(body string) []Reference {
	src := []byte(body)
	root := scanner.Parser().Parse(text.NewReader(src))

	var refs []Reference
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			refs = append(refs, Reference{Kind: RefInline, Text: string(v.Text(src)), URL: string(v.Destination), Line: lineOf(v, src)})
		case *ast.Image:
			refs = append(refs, Reference{Kind: RefImage, Text: string(v.Text(src)), URL: string(v.Destination), Line: lineOf(v, src)})
		case *ast.AutoLink:
			u := string(v.URL(src))
			refs = append(refs, Reference{Kind: RefAuto, Text: string(v.Label(src)), URL: u, Line: lineOf(v, src)})
		}
		return ast.WalkContinue, nil
	})
	return refs
}

// InternalReferences returns the references in body that point at internal
// pages, ignoring documentation placeholders.
func (r *Resolver) InternalReferences(body string) []Reference {
	var out []Reference
	for _, ref := range Scan(body) {
		if r.IsInternal(ref.URL) && !placeholderRe.MatchString(ref.URL) {
			out = append(out, ref)
		}
	}
	return out
}

// lineOf returns the 1-based line of the first text inside n, falling back to
// the enclosing block.
func lineOf(n ast.Node, src []byte) int {
	offset := -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			offset = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if offset < 0 {
		for p := n.Parent(); p != nil; p = p.Parent() {
			if p.Type() != ast.TypeBlock {
				continue
			}
			if lines := p.Lines(); lines != nil && lines.Len() > 0 {
				offset = lines.At(0).Start
				break
			}
		}
	}
	if offset < 0 {
		return 0
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}
