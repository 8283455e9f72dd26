// Package blocks converts an entry body into a tree of content blocks that
// destinations can render.
package blocks

import "github.com/starford/daybook/internal/richtext"

// Kind identifies the type of a block.
type Kind string

const (
	Heading      Kind = "heading"
	Paragraph    Kind = "paragraph"
	BulletedItem Kind = "bulleted_list_item"
	NumberedItem Kind = "numbered_list_item"
	Quote        Kind = "quote"
	Divider      Kind = "divider"
	Code         Kind = "code"
	Image        Kind = "image"
)

// DefaultLanguage is used for code fences without a language tag.
const DefaultLanguage = "plain text"

// Block is one node of the converted tree. Only list items carry children.
type Block struct {
	Kind     Kind            `json:"kind"`
	Level    int             `json:"level,omitempty"`
	RichText []richtext.Span `json:"rich_text,omitempty"`
	Language string          `json:"language,omitempty"`
	Code     string          `json:"code,omitempty"`
	URL      string          `json:"url,omitempty"`
	Caption  []richtext.Span `json:"caption,omitempty"`
	Children []Block         `json:"children,omitempty"`
}

// IsListItem reports whether b is a bulleted or numbered list item.
func (b Block) IsListItem() bool {
	return b.Kind == BulletedItem || b.Kind == NumberedItem
}

// Text returns the unstyled text of b, without its children.
func (b Block) Text() string {
	return richtext.PlainText(b.RichText)
}

// Outline returns the text of the top-level headings in order.
func Outline(bs []Block) []string {
	var out []string
	for _, b := range bs {
		if b.Kind == Heading {
			out = append(out, b.Text())
		}
	}
	return out
}

// Count returns the number of blocks in the tree, children included.
func Count(bs []Block) int {
	n := 0
	for _, b := range bs {
		n += 1 + Count(b.Children)
	}
	return n
}
