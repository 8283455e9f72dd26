package slack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownToMrkdwn(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "mixed",
			input: "# Title\n\n**bold** and _italic_ with [link](http://x.com)\n\n---",
			want:  "*Title*\n\n*bold* and _italic_ with <http://x.com|link>\n\n---",
		},
		{
			name:  "deep heading",
			input: "###### Small",
			want:  "*Small*",
		},
		{
			name:  "underscore bold",
			input: "__strong__ words",
			want:  "*strong* words",
		},
		{
			name:  "code kept verbatim",
			input: "```\n# not a heading\n**x** [a](b)\n```\n## After",
			want:  "```\n# not a heading\n**x** [a](b)\n```\n*After*",
		},
		{
			name:  "hash without space",
			input: "#hashtag",
			want:  "#hashtag",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarkdownToMrkdwn(tt.input))
		})
	}
}

func TestPostText(t *testing.T) {
	p := Post{Subject: "2024-01-02: Day", Body: "**hi**"}
	assert.Equal(t, "*2024-01-02: Day*\n\n*hi*", p.Text())

	p.NotionURL = "https://www.notion.so/x"
	p.ButtondownURL = "https://buttondown.email/emails"
	assert.Equal(t, "*2024-01-02: Day*\nNotion: <https://www.notion.so/x>\nButtondown: <https://buttondown.email/emails>\n\n*hi*", p.Text())
}
