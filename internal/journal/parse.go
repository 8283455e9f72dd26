package journal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const headerDelim = "---"

// legacyKeys are the only keys accepted in a "Key: value" header. Matching
// is case-insensitive.
var legacyKeys = map[string]bool{
	"notion-id":       true,
	"last-modified":   true,
	"subject":         true,
	"buttondown-id":   true,
	"slack-ts":        true,
	"slack-channel":   true,
	"slack-canvas-id": true,
}

var errEmptyHeader = errors.New("journal: header is not a non-empty mapping")

// Parser turns entry text into an Entry. The zero value is not usable; use
// NewParser.
type Parser struct {
	now func() time.Time
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithClock sets the function used to determine "today".
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) {
		p.now = now
	}
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse parses text with the default parser. source is the originating file
// path and may be empty.
func Parse(text, source string) *Entry {
	return defaultParser.Parse(text, source)
}

// ParseFile reads and parses the entry at path.
func ParseFile(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("journal: read %s: %w", path, err)
	}
	return Parse(string(data), path), nil
}

// Parse tries each header style in turn and never fails: text without any
// recognizable structure becomes an untitled entry.
func (p *Parser) Parse(text, source string) *Entry {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	strategies := []func(string, string) (*Entry, bool){
		p.parseFrontMatter,
		p.parseLegacy,
		p.parseHeading,
	}
	for _, strategy := range strategies {
		if e, ok := strategy(text, source); ok {
			e.Source = source
			return e
		}
	}
	e := p.parsePlain(text, source)
	e.Source = source
	return e
}

func (p *Parser) parseFrontMatter(text, source string) (*Entry, bool) {
	header, rest, ok := splitFrontMatter(text)
	if !ok {
		return nil, false
	}
	md, err := decodeHeader(header)
	if err != nil {
		return nil, false
	}

	e := &Entry{Metadata: md, Format: FormatFrontMatter, Body: trimBody(rest)}

	// A title key owns the title; a leading H1 then belongs to the body.
	dateHint := ""
	if hasKey(md, KeyTitle) {
		e.Title = md.String(KeyTitle)
		dateHint = e.Title
	} else if heading, body, ok := cutLeadingHeading(e.Body); ok {
		e.Body = body
		dateHint = heading
		if _, end, found := FindDate(heading); found {
			e.Title = strings.TrimSpace(strings.TrimLeft(heading[end:], ": "))
		} else {
			e.Title = heading
		}
	} else {
		e.Title = UntitledTitle
	}

	e.Date = p.headerDate(md, dateHint, source)
	md.Delete(KeyTitle)
	md.Delete(KeyDate)
	return e, true
}

// headerDate picks the entry date from the date key, then the title, then
// the file name, then today.
func (p *Parser) headerDate(md *Metadata, hint, source string) time.Time {
	if v, ok := md.Get(KeyDate); ok {
		switch t := v.(type) {
		case time.Time:
			return t
		case string:
			if d, _, found := FindDate(t); found {
				return d
			}
		}
	}
	if d, _, found := FindDate(hint); found {
		return d
	}
	if d, found := DateFromFilename(source); found {
		return d
	}
	return Today(p.now())
}

func (p *Parser) parseLegacy(text, _ string) (*Entry, bool) {
	lines := strings.Split(text, "\n")
	md := NewMetadata()
	bodyStart := len(lines)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			bodyStart = i + 1
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found || strings.HasPrefix(line, "#") || !legacyKeys[strings.ToLower(strings.TrimSpace(key))] {
			bodyStart = i
			break
		}
		md.Set(key, strings.TrimSpace(value))
	}

	subject, ok := md.Get("subject")
	if !ok {
		return nil, false
	}
	md.Delete("subject")

	date, title := ExtractDateTitle(subject.(string), p.now())
	_, body, _ := cutLeadingHeading(trimBody(strings.Join(lines[bodyStart:], "\n")))
	return &Entry{
		Title:    title,
		Date:     date,
		Body:     body,
		Metadata: md,
		Format:   FormatLegacy,
	}, true
}

func (p *Parser) parseHeading(text, _ string) (*Entry, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "# ") {
			continue
		}
		date, title := ExtractDateTitle(line[2:], p.now())
		return &Entry{
			Title:    title,
			Date:     date,
			Body:     trimBody(strings.Join(lines[i+1:], "\n")),
			Metadata: NewMetadata(),
			Format:   FormatHeading,
		}, true
	}
	return nil, false
}

func (p *Parser) parsePlain(text, source string) *Entry {
	date, ok := DateFromFilename(source)
	if !ok {
		date = Today(p.now())
	}
	return &Entry{
		Title:    UntitledTitle,
		Date:     date,
		Body:     trimBody(text),
		Metadata: NewMetadata(),
		Format:   FormatPlain,
	}
}

// splitFrontMatter separates a header enclosed by "---" lines from the rest
// of the text. Leading blank lines before the opening delimiter are allowed.
func splitFrontMatter(text string) (header, rest string, ok bool) {
	lines := strings.Split(text, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimRight(lines[start], " \t") != headerDelim {
		return "", "", false
	}
	for j := start + 1; j < len(lines); j++ {
		if strings.TrimRight(lines[j], " \t") == headerDelim {
			return strings.Join(lines[start+1:j], "\n"), strings.Join(lines[j+1:], "\n"), true
		}
	}
	return "", "", false
}

// decodeHeader reads a YAML mapping while keeping key order.
func decodeHeader(header string) (*Metadata, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, fmt.Errorf("journal: decode header: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errEmptyHeader
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode || len(mapping.Content) == 0 {
		return nil, errEmptyHeader
	}

	md := NewMetadata()
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		md.Set(mapping.Content[i].Value, nodeValue(mapping.Content[i+1]))
	}
	return md, nil
}

// nodeValue types a header value: unquoted ISO dates become time.Time, other
// scalars become strings and anything structured is kept as a node.
func nodeValue(n *yaml.Node) any {
	if n.Kind != yaml.ScalarNode {
		return n
	}
	if n.ShortTag() == "!!null" {
		return ""
	}
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) == 0 {
		if d, err := time.Parse(DateLayout, n.Value); err == nil {
			return d
		}
	}
	return n.Value
}

// cutLeadingHeading removes a first-line "# " heading from body.
func cutLeadingHeading(body string) (heading, rest string, ok bool) {
	first, after, _ := strings.Cut(body, "\n")
	if !strings.HasPrefix(first, "# ") {
		return "", body, false
	}
	return strings.TrimSpace(first[2:]), trimBody(after), true
}

// trimBody drops leading blank lines and trailing whitespace while keeping
// the indentation of the first content line.
func trimBody(s string) string {
	for {
		line, rest, found := strings.Cut(s, "\n")
		if strings.TrimSpace(line) != "" {
			break
		}
		if !found {
			return ""
		}
		s = rest
	}
	return strings.TrimRight(s, " \t\r\n")
}

func hasKey(md *Metadata, key string) bool {
	_, ok := md.Get(key)
	return ok
}
