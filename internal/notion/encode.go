package notion

import (
	"github.com/starford/daybook/internal/blocks"
	"github.com/starford/daybook/internal/richtext"
)

// MaxTextLength is the longest content a single rich-text object may carry.
const MaxTextLength = 2000

// RichText is a rich-text object as sent to and read from the API.
type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Annotations struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Code   bool `json:"code,omitempty"`
}

// text returns the visible text of a rich-text object.
func (r RichText) text() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

// encodeSpans turns spans into rich-text objects, splitting any text longer
// than MaxTextLength into several objects with the same style.
func encodeSpans(spans []richtext.Span) []RichText {
	out := make([]RichText, 0, len(spans))
	for _, s := range spans {
		for _, chunk := range chunkText(s.Text) {
			rt := RichText{Type: "text", Text: &TextContent{Content: chunk}}
			switch s.Kind {
			case richtext.Bold:
				rt.Annotations = &Annotations{Bold: true}
			case richtext.Italic:
				rt.Annotations = &Annotations{Italic: true}
			case richtext.Code:
				rt.Annotations = &Annotations{Code: true}
			case richtext.Link:
				rt.Text.Link = &Link{URL: s.URL}
			}
			out = append(out, rt)
		}
	}
	return out
}

func plainRichText(s string) []RichText {
	return encodeSpans([]richtext.Span{{Kind: richtext.Plain, Text: s}})
}

// chunkText splits s into pieces of at most MaxTextLength characters.
func chunkText(s string) []string {
	r := []rune(s)
	if len(r) <= MaxTextLength {
		return []string{s}
	}
	var out []string
	for len(r) > 0 {
		n := min(len(r), MaxTextLength)
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	return out
}

// BlockObject is a block as sent to the API. Exactly one of the payload
// fields is set, matching Type.
type BlockObject struct {
	Object           string        `json:"object"`
	Type             string        `json:"type"`
	Heading1         *TextPayload  `json:"heading_1,omitempty"`
	Heading2         *TextPayload  `json:"heading_2,omitempty"`
	Heading3         *TextPayload  `json:"heading_3,omitempty"`
	Paragraph        *TextPayload  `json:"paragraph,omitempty"`
	BulletedListItem *TextPayload  `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextPayload  `json:"numbered_list_item,omitempty"`
	Quote            *TextPayload  `json:"quote,omitempty"`
	Divider          *struct{}     `json:"divider,omitempty"`
	Code             *CodePayload  `json:"code,omitempty"`
	Image            *ImagePayload `json:"image,omitempty"`
}

type TextPayload struct {
	RichText []RichText    `json:"rich_text"`
	Children []BlockObject `json:"children,omitempty"`
}

type CodePayload struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

type ImagePayload struct {
	Type     string     `json:"type"`
	External Link       `json:"external"`
	Caption  []RichText `json:"caption,omitempty"`
}

// encodeBlocks converts blocks for one request. Children are included one
// level deep; a list whose children would exceed a request's limits is sent
// without them and completed later by the publisher.
func encodeBlocks(bs []blocks.Block) []BlockObject {
	out := make([]BlockObject, 0, len(bs))
	for _, b := range bs {
		out = append(out, encodeBlock(b, 1))
	}
	return out
}

func encodeBlock(b blocks.Block, depth int) BlockObject {
	obj := BlockObject{Object: "block"}
	text := &TextPayload{RichText: encodeSpans(b.RichText)}

	switch b.Kind {
	case blocks.Heading:
		switch b.Level {
		case 1:
			obj.Type, obj.Heading1 = "heading_1", text
		case 2:
			obj.Type, obj.Heading2 = "heading_2", text
		default:
			obj.Type, obj.Heading3 = "heading_3", text
		}
	case blocks.BulletedItem:
		obj.Type, obj.BulletedListItem = "bulleted_list_item", text
	case blocks.NumberedItem:
		obj.Type, obj.NumberedListItem = "numbered_list_item", text
	case blocks.Quote:
		obj.Type, obj.Quote = "quote", text
	case blocks.Divider:
		obj.Type, obj.Divider = "divider", &struct{}{}
	case blocks.Code:
		lang := b.Language
		if lang == "" {
			lang = blocks.DefaultLanguage
		}
		obj.Type, obj.Code = "code", &CodePayload{RichText: plainRichText(b.Code), Language: lang}
	case blocks.Image:
		obj.Type, obj.Image = "image", &ImagePayload{Type: "external", External: Link{URL: b.URL}, Caption: encodeSpans(b.Caption)}
	default:
		obj.Type, obj.Paragraph = "paragraph", text
	}

	if b.IsListItem() && depth < MaxDepth && inlineChildren(b) {
		for _, c := range b.Children {
			text.Children = append(text.Children, encodeBlock(c, depth+1))
		}
	}
	return obj
}

// inlineChildren reports whether b's children fit in the same request as b.
func inlineChildren(b blocks.Block) bool {
	return len(b.Children) > 0 && len(b.Children) <= BatchSize
}

// deferred reports whether part of b's subtree must be appended after b is
// created.
func deferred(b blocks.Block) bool {
	if len(b.Children) == 0 {
		return false
	}
	if !inlineChildren(b) {
		return true
	}
	for _, c := range b.Children {
		if len(c.Children) > 0 {
			return true
		}
	}
	return false
}
