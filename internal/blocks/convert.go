package blocks

import (
	"regexp"
	"strings"

	"github.com/starford/daybook/internal/richtext"
)

var (
	listRe    = regexp.MustCompile(`^(\s*)([-*]|\d+\.) (.*)$`)
	imageRe   = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)$`)
	headingRe = regexp.MustCompile(`^#{1,3} `)
)

// Convert turns a markdown body into blocks. It is line oriented and only
// understands the subset of markdown that journal entries use; anything else
// becomes a paragraph. Level-1 headings are dropped because the title is
// carried separately.
func Convert(body string) []Block {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	var out []Block
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++

		case strings.HasPrefix(line, "# "):
			i++

		case strings.HasPrefix(line, "## "):
			out = append(out, heading(2, line[3:]))
			i++

		case strings.HasPrefix(line, "### "):
			out = append(out, heading(3, line[4:]))
			i++

		case strings.HasPrefix(line, "```"):
			var b Block
			b, i = codeBlock(lines, i)
			out = append(out, b)

		case isDivider(trimmed):
			out = append(out, Block{Kind: Divider})
			i++

		case strings.HasPrefix(line, "> "):
			out = append(out, Block{Kind: Quote, RichText: richtext.Tokenize(strings.TrimSpace(line[2:]))})
			i++

		case imageRe.MatchString(trimmed):
			out = append(out, image(trimmed))
			i++

		case listRe.MatchString(line):
			var items []listItem
			items, i = collectList(lines, i)
			out = append(out, foldList(items)...)

		default:
			para := []string{trimmed}
			i++
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !startsBlock(lines[i]) {
				para = append(para, strings.TrimSpace(lines[i]))
				i++
			}
			out = append(out, Block{Kind: Paragraph, RichText: richtext.Tokenize(strings.Join(para, " "))})
		}
	}
	return out
}

func heading(level int, text string) Block {
	return Block{Kind: Heading, Level: level, RichText: richtext.Tokenize(strings.TrimSpace(text))}
}

// codeBlock reads a fenced block starting at lines[i]. An unterminated fence
// runs to the end of the input.
func codeBlock(lines []string, i int) (Block, int) {
	lang := strings.TrimSpace(lines[i][3:])
	if lang == "" {
		lang = DefaultLanguage
	}
	i++
	var code []string
	for i < len(lines) && !strings.HasPrefix(lines[i], "```") {
		code = append(code, lines[i])
		i++
	}
	if i < len(lines) {
		i++ // closing fence
	}
	return Block{Kind: Code, Language: lang, Code: strings.Join(code, "\n")}, i
}

func image(line string) Block {
	m := imageRe.FindStringSubmatch(line)
	b := Block{Kind: Image, URL: m[2]}
	if m[1] != "" {
		b.Caption = []richtext.Span{{Kind: richtext.Plain, Text: m[1]}}
	}
	return b
}

func isDivider(trimmed string) bool {
	return trimmed == "---" || trimmed == "***" || trimmed == "___"
}

// startsBlock reports whether line ends a running paragraph.
func startsBlock(line string) bool {
	trimmed := strings.TrimSpace(line)
	return headingRe.MatchString(line) ||
		strings.HasPrefix(line, "```") ||
		strings.HasPrefix(line, "> ") ||
		isDivider(trimmed) ||
		imageRe.MatchString(trimmed) ||
		listRe.MatchString(line)
}

type listItem struct {
	indent int
	kind   Kind
	text   string
}

func collectList(lines []string, i int) ([]listItem, int) {
	var items []listItem
	for i < len(lines) {
		m := listRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		kind := NumberedItem
		if m[2] == "-" || m[2] == "*" {
			kind = BulletedItem
		}
		items = append(items, listItem{indent: len(m[1]), kind: kind, text: strings.TrimSpace(m[3])})
		i++
	}
	return items, i
}

type listNode struct {
	block    Block
	indent   int
	children []*listNode
}

// foldList nests flat list items by indentation. An item becomes a child of
// the nearest preceding item with a strictly smaller indent.
func foldList(items []listItem) []Block {
	var roots, stack []*listNode
	for _, it := range items {
		n := &listNode{
			block:  Block{Kind: it.kind, RichText: richtext.Tokenize(it.text)},
			indent: it.indent,
		}
		for len(stack) > 0 && stack[len(stack)-1].indent >= it.indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}

	out := make([]Block, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.toBlock())
	}
	return out
}

func (n *listNode) toBlock() Block {
	b := n.block
	for _, c := range n.children {
		b.Children = append(b.Children, c.toBlock())
	}
	return b
}
