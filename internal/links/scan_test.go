package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	body := "Intro [docs](https://docs.example) here.\n\n![pic](https://img.example/a.png)\n\nbare https://bare.example/x end\n"

	refs := Scan(body)
	require.Len(t, refs, 3)

	assert.Equal(t, Reference{Kind: RefInline, Text: "docs", URL: "https://docs.example", Line: 1}, refs[0])
	assert.Equal(t, Reference{Kind: RefImage, Text: "pic", URL: "https://img.example/a.png", Line: 3}, refs[1])
	assert.Equal(t, RefAuto, refs[2].Kind)
	assert.Equal(t, "https://bare.example/x", refs[2].URL)
	assert.Equal(t, 5, refs[2].Line)
}

func TestScan_IgnoresCode(t *testing.T) {
	body := "```\n[a](https://a.example)\n```\n\n`[b](https://b.example)`\n"
	assert.Empty(t, Scan(body))
}

func TestInternalReferences(t *testing.T) {
	r := NewResolver(nil)
	body := "[real](https://www.notion.so/ws/Page-" + pageHex + ")\n" +
		"[doc](https://www.notion.so/ws/example-page)\n" +
		"[ext](https://example.com)\n"

	refs := r.InternalReferences(body)
	require.Len(t, refs, 1)
	assert.Equal(t, "real", refs[0].Text)
}
