package blocks

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/daybook/internal/richtext"
)

func plain(s string) []richtext.Span {
	return []richtext.Span{{Kind: richtext.Plain, Text: s}}
}

func kinds(bs []Block) []Kind {
	var out []Kind
	for _, b := range bs {
		out = append(out, b.Kind)
	}
	return out
}

func TestConvert_Paragraph(t *testing.T) {
	bs := Convert("Hello world")
	if len(bs) != 1 || bs[0].Kind != Paragraph {
		t.Fatalf("blocks = %+v", bs)
	}
	if !reflect.DeepEqual(bs[0].RichText, plain("Hello world")) {
		t.Errorf("rich text = %+v", bs[0].RichText)
	}
}

func TestConvert_Headings(t *testing.T) {
	bs := Convert("## My Heading\n### Sub Heading")
	if len(bs) != 2 {
		t.Fatalf("len = %d, want 2", len(bs))
	}
	if bs[0].Kind != Heading || bs[0].Level != 2 || !reflect.DeepEqual(bs[0].RichText, plain("My Heading")) {
		t.Errorf("h2 = %+v", bs[0])
	}
	if bs[1].Level != 3 || !reflect.DeepEqual(bs[1].RichText, plain("Sub Heading")) {
		t.Errorf("h3 = %+v", bs[1])
	}
}

func TestConvert_TitleHeadingSkipped(t *testing.T) {
	if bs := Convert("# Top Level Heading"); len(bs) != 0 {
		t.Errorf("blocks = %+v, want none", bs)
	}
}

func TestConvert_Lists(t *testing.T) {
	bs := Convert("- item one\n- item two")
	if !reflect.DeepEqual(kinds(bs), []Kind{BulletedItem, BulletedItem}) {
		t.Errorf("kinds = %v", kinds(bs))
	}
	if !reflect.DeepEqual(bs[0].RichText, plain("item one")) {
		t.Errorf("rich text = %+v", bs[0].RichText)
	}

	bs = Convert("* item one\n* item two")
	if len(bs) != 2 || bs[0].Kind != BulletedItem {
		t.Errorf("star list = %+v", bs)
	}

	bs = Convert("1. first\n2. second")
	if !reflect.DeepEqual(kinds(bs), []Kind{NumberedItem, NumberedItem}) {
		t.Errorf("kinds = %v", kinds(bs))
	}
	if !reflect.DeepEqual(bs[0].RichText, plain("first")) {
		t.Errorf("rich text = %+v", bs[0].RichText)
	}
}

func TestConvert_CodeBlock(t *testing.T) {
	bs := Convert("```python\nprint('hello')\n  **not bold**\n```")
	if len(bs) != 1 || bs[0].Kind != Code {
		t.Fatalf("blocks = %+v", bs)
	}
	if bs[0].Language != "python" {
		t.Errorf("language = %q", bs[0].Language)
	}
	if bs[0].Code != "print('hello')\n  **not bold**" {
		t.Errorf("code = %q", bs[0].Code)
	}

	bs = Convert("```\nsome code\n```")
	if bs[0].Language != DefaultLanguage {
		t.Errorf("language = %q, want %q", bs[0].Language, DefaultLanguage)
	}
}

func TestConvert_UnterminatedFence(t *testing.T) {
	bs := Convert("```\na\nb")
	if len(bs) != 1 || bs[0].Code != "a\nb" {
		t.Errorf("blocks = %+v", bs)
	}
}

func TestConvert_QuoteAndDivider(t *testing.T) {
	bs := Convert("> This is a quote\n\n---\n***\n___")
	if !reflect.DeepEqual(kinds(bs), []Kind{Quote, Divider, Divider, Divider}) {
		t.Fatalf("kinds = %v", kinds(bs))
	}
	if !reflect.DeepEqual(bs[0].RichText, plain("This is a quote")) {
		t.Errorf("quote = %+v", bs[0].RichText)
	}
}

func TestConvert_Mixed(t *testing.T) {
	bs := Convert("## Title\n\nA paragraph.\n\n- item\n\n---\n\n> quote")
	want := []Kind{Heading, Paragraph, BulletedItem, Divider, Quote}
	if !reflect.DeepEqual(kinds(bs), want) {
		t.Errorf("kinds = %v, want %v", kinds(bs), want)
	}
}

func TestConvert_MultilineParagraph(t *testing.T) {
	bs := Convert("Line one\nLine two\n\nNew paragraph")
	if len(bs) != 2 {
		t.Fatalf("len = %d, want 2", len(bs))
	}
	if got := richtext.PlainText(bs[0].RichText); got != "Line one Line two" {
		t.Errorf("paragraph = %q", got)
	}
}

func TestConvert_ParagraphStopsAtBlockStart(t *testing.T) {
	bs := Convert("text\n## Heading\nmore\n- item\nafter\n> q")
	want := []Kind{Paragraph, Heading, Paragraph, BulletedItem, Paragraph, Quote}
	if !reflect.DeepEqual(kinds(bs), want) {
		t.Errorf("kinds = %v, want %v", kinds(bs), want)
	}
}

func TestConvert_NestedBullets(t *testing.T) {
	bs := Convert("- parent\n  - child one\n  - child two\n- sibling")
	if len(bs) != 2 {
		t.Fatalf("len = %d, want 2", len(bs))
	}
	if !reflect.DeepEqual(bs[0].RichText, plain("parent")) {
		t.Errorf("parent = %+v", bs[0].RichText)
	}
	if len(bs[0].Children) != 2 {
		t.Fatalf("children = %d, want 2", len(bs[0].Children))
	}
	if !reflect.DeepEqual(bs[0].Children[0].RichText, plain("child one")) {
		t.Errorf("child = %+v", bs[0].Children[0].RichText)
	}
	if len(bs[1].Children) != 0 {
		t.Errorf("sibling children = %+v", bs[1].Children)
	}
}

func TestConvert_NestedNumbered(t *testing.T) {
	bs := Convert("1. first\n   1. sub one\n   2. sub two\n2. second")
	if len(bs) != 2 || len(bs[0].Children) != 2 {
		t.Fatalf("blocks = %+v", bs)
	}
	if bs[0].Children[0].Kind != NumberedItem || bs[1].Kind != NumberedItem {
		t.Errorf("kinds wrong: %+v", bs)
	}
}

func TestConvert_DeeplyNested(t *testing.T) {
	bs := Convert("- a\n  - b\n    - c")
	if len(bs) != 1 || len(bs[0].Children) != 1 || len(bs[0].Children[0].Children) != 1 {
		t.Fatalf("blocks = %+v", bs)
	}
	if got := bs[0].Children[0].Children[0].RichText; !reflect.DeepEqual(got, plain("c")) {
		t.Errorf("grandchild = %+v", got)
	}
	if Count(bs) != 3 {
		t.Errorf("Count = %d, want 3", Count(bs))
	}
}

func TestConvert_MixedNestedKinds(t *testing.T) {
	bs := Convert("- bullet\n  1. numbered child")
	if len(bs) != 1 || len(bs[0].Children) != 1 || bs[0].Children[0].Kind != NumberedItem {
		t.Errorf("blocks = %+v", bs)
	}
}

func TestConvert_DedentAttachesToNearestShallower(t *testing.T) {
	bs := Convert("- a\n    - b\n  - c\n- d")
	if len(bs) != 2 {
		t.Fatalf("roots = %d, want 2", len(bs))
	}
	if len(bs[0].Children) != 2 {
		t.Errorf("a children = %d, want 2 (b and c)", len(bs[0].Children))
	}
}

func TestConvert_Image(t *testing.T) {
	bs := Convert("![photo](https://example.com/img.png)")
	if len(bs) != 1 || bs[0].Kind != Image {
		t.Fatalf("blocks = %+v", bs)
	}
	if bs[0].URL != "https://example.com/img.png" || !reflect.DeepEqual(bs[0].Caption, plain("photo")) {
		t.Errorf("image = %+v", bs[0])
	}

	bs = Convert("![](https://example.com/img.png)")
	if bs[0].Caption != nil {
		t.Errorf("caption = %+v, want none", bs[0].Caption)
	}
}

func TestConvert_ImageNotAbsorbed(t *testing.T) {
	bs := Convert("Some text.\n![pic](https://example.com/a.png)\nMore text.")
	want := []Kind{Paragraph, Image, Paragraph}
	if !reflect.DeepEqual(kinds(bs), want) {
		t.Errorf("kinds = %v, want %v", kinds(bs), want)
	}
}

func TestConvert_Deterministic(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, fmt.Sprintf("- item %d **b**", i), fmt.Sprintf("  - child %d", i))
	}
	body := strings.Join(lines, "\n")
	if !reflect.DeepEqual(Convert(body), Convert(body)) {
		t.Error("Convert is not deterministic")
	}
}

func TestOutline(t *testing.T) {
	bs := Convert("# Title\n\n## **Morning** run\n\nText.\n\n- item\n\n### Notes")
	got := Outline(bs)
	want := []string{"Morning run", "Notes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outline = %q, want %q", got, want)
	}
	if Outline(Convert("just text")) != nil {
		t.Error("outline of a body without headings should be nil")
	}
}
