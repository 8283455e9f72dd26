package richtext

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Span
	}{
		{"plain", "hello world", []Span{{Kind: Plain, Text: "hello world"}}},
		{"bold", "some **bold** text", []Span{
			{Kind: Plain, Text: "some "}, {Kind: Bold, Text: "bold"}, {Kind: Plain, Text: " text"},
		}},
		{"italic star", "some *italic* text", []Span{
			{Kind: Plain, Text: "some "}, {Kind: Italic, Text: "italic"}, {Kind: Plain, Text: " text"},
		}},
		{"italic underscore", "some _italic_ text", []Span{
			{Kind: Plain, Text: "some "}, {Kind: Italic, Text: "italic"}, {Kind: Plain, Text: " text"},
		}},
		{"code", "some `code` text", []Span{
			{Kind: Plain, Text: "some "}, {Kind: Code, Text: "code"}, {Kind: Plain, Text: " text"},
		}},
		{"link", "click [here](https://example.com) now", []Span{
			{Kind: Plain, Text: "click "}, {Kind: Link, Text: "here", URL: "https://example.com"}, {Kind: Plain, Text: " now"},
		}},
		{"adjacent", "**bold** and *italic*", []Span{
			{Kind: Bold, Text: "bold"}, {Kind: Plain, Text: " and "}, {Kind: Italic, Text: "italic"},
		}},
		{"bold wins over italic", "**a** *b*", []Span{
			{Kind: Bold, Text: "a"}, {Kind: Plain, Text: " "}, {Kind: Italic, Text: "b"},
		}},
		{"no nesting inside code", "`**x**`", []Span{{Kind: Code, Text: "**x**"}}},
		{"unclosed marker stays plain", "a * b", []Span{{Kind: Plain, Text: "a * b"}}},
		{"marker link", "[t](https://x.com) [🄽](https://notion.so/p)", []Span{
			{Kind: Link, Text: "t", URL: "https://x.com"},
			{Kind: Plain, Text: " "},
			{Kind: Link, Text: "🄽", URL: "https://notion.so/p"},
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Tokenize(c.in)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", c.in, got, c.want)
			}
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %#v, want empty", got)
	}
}

func TestPlainText(t *testing.T) {
	in := "a **b** [c](u) `d`"
	if got := PlainText(Tokenize(in)); got != "a b c d" {
		t.Errorf("PlainText = %q", got)
	}
}
