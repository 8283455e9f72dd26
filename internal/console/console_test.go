package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
)

func TestPrinter(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	p := New(&buf)
	p.Success("Notion: %s", "done")
	p.Warning("skipped")

	want := "✅ Notion: done\n⚠️ skipped\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestHyperlink(t *testing.T) {
	color.NoColor = false
	got := Hyperlink("https://x.example", "x")
	want := "\x1b]8;;https://x.example\x1b\\x\x1b]8;;\x1b\\"
	if got != want {
		t.Errorf("Hyperlink = %q, want %q", got, want)
	}

	color.NoColor = true
	defer func() { color.NoColor = false }()
	if got := Hyperlink("https://x.example", ""); got != "https://x.example" {
		t.Errorf("plain Hyperlink = %q", got)
	}
}
