package journal

import (
	"strings"
	"testing"
)

func TestRender_KeyOrder(t *testing.T) {
	e := testParser().Parse("---\nmood: good\nslack_ts: \"1.2\"\ntitle: T\nnotion_id: abc\ndate: 2024-01-02\n---\n\nBody\n", "")
	out, err := Render(e)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "---\ntitle: T\ndate: 2024-01-02\nnotion_id: abc\nslack_ts: \"1.2\"\nmood: good\n---\n\nBody\n"
	if string(out) != want {
		t.Errorf("render =\n%s\nwant\n%s", out, want)
	}
}

func TestRender_RoundTripBody(t *testing.T) {
	bodies := []string{
		"## Working on\n\nSomething with **bold** and [links](http://example.com).\n\n## Thinking about\n\nMore stuff.",
		"    indented code first\n\ntext",
		"- a\n  - b\n\n```go\nfunc main() {}\n```",
		"# Second H1\n\nText.",
		"",
	}
	for _, body := range bodies {
		e := &Entry{Title: "Round: trip", Date: date(2025, 2, 7), Body: body, Metadata: NewMetadata()}
		out, err := Render(e)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		back := testParser().Parse(string(out), "")
		if back.Body != body {
			t.Errorf("body = %q, want %q", back.Body, body)
		}
		if back.Title != e.Title || !back.Date.Equal(e.Date) {
			t.Errorf("title/date = %q %v", back.Title, back.Date)
		}
	}
}

func TestRender_Idempotent(t *testing.T) {
	e := testParser().Parse("Notion-Id: https://notion.so/x/abc\nLast-Modified: 2024-04-24T04:30:51+00:00\nSubject: 2024-04-23: Test\n\n## Body\n", "")
	first, err := Render(e)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := Render(testParser().Parse(string(first), ""))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("not stable:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(string(first), "last_modified: \"2024-04-24T04:30:51+00:00\"") &&
		!strings.Contains(string(first), "last_modified: '2024-04-24T04:30:51+00:00'") {
		t.Errorf("timestamp should stay a quoted string:\n%s", first)
	}
}

func TestRender_KeepsLaterHeading(t *testing.T) {
	inputs := map[string]string{
		"heading":      "# 2025-02-07: My Post\n\n# Second H1\n\nText.",
		"legacy":       "Subject: 2025-02-07: My Post\n\n# 2025-02-07: My Post\n\n# Second H1\n\nText.",
		"front matter": "---\nnotion_id: x\n---\n# 2025-02-07: My Post\n\n# Second H1\n\nText.",
	}
	for name, text := range inputs {
		e := testParser().Parse(text, "")
		if e.Body != "# Second H1\n\nText." {
			t.Fatalf("%s: first parse body = %q", name, e.Body)
		}
		e.Metadata.Set(KeySlackTS, "1.2")
		out, err := Render(e)
		if err != nil {
			t.Fatalf("%s: Render: %v", name, err)
		}
		back := testParser().Parse(string(out), "")
		if back.Body != e.Body {
			t.Errorf("%s: body = %q, want %q", name, back.Body, e.Body)
		}
		if back.Title != "My Post" {
			t.Errorf("%s: title = %q", name, back.Title)
		}
	}
}
