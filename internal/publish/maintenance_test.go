package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/links"
	"github.com/starford/daybook/internal/testutil"
)

type goneSource struct{ fakeSource }

func (goneSource) Page(context.Context, string) (*links.Page, error) {
	return nil, errors.New("page lookups unavailable")
}

func TestLinks_WriteSavesRewrittenBody(t *testing.T) {
	path := writeEntry(t, "entry.md", "# 2024-01-02: Day\n\nSee [plans]("+internalLink()+").\n")
	svc := newTestService(WithResolver(links.NewResolver(fakeSource{})))

	report, err := svc.Links(context.Background(), path, LinkOptions{Write: true})
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.True(t, report.Saved)

	want := "---\ntitle: Day\ndate: 2024-01-02\n---\n\nSee [plans](https://public.example/p) [🄽](" + internalLink() + ").\n"
	assert.Equal(t, want, readEntry(t, path))

	again, err := svc.Links(context.Background(), path, LinkOptions{Write: true})
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestLinks_WithoutWriteLeavesFile(t *testing.T) {
	content := "# 2024-01-02: Day\n\nSee [plans](" + internalLink() + ").\n"
	path := writeEntry(t, "entry.md", content)
	svc := newTestService(WithResolver(links.NewResolver(fakeSource{})))

	report, err := svc.Links(context.Background(), path, LinkOptions{})
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.False(t, report.Saved)
	assert.Equal(t, content, readEntry(t, path))
}

func TestLinks_GrammarWhenNothingMissing(t *testing.T) {
	path := writeEntry(t, "entry.md", "# 2024-01-02: Day\n\nNo links here.\n")
	a := &fakeAssistant{}
	svc := newTestService(WithAssistant(a))

	report, err := svc.Links(context.Background(), path, LinkOptions{Assist: true})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", report.Grammar)
	require.Len(t, a.grammar, 1)
	assert.Contains(t, a.grammar[0], "No links here.")
	assert.Empty(t, a.suggested)
}

func TestGrammar_RequiresAssistant(t *testing.T) {
	path := writeEntry(t, "entry.md", "Body\n")
	_, err := newTestService().Grammar(context.Background(), path)
	assert.ErrorIs(t, err, errNoAssistant)

	a := &fakeAssistant{}
	out, err := newTestService(WithAssistant(a)).Grammar(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "looks fine", out)
}

func TestLint(t *testing.T) {
	path := writeEntry(t, "entry.md", "---\ntitle: Day\ndate: 2024-01-02\nnotion_id: https://www.notion.so/Day-"+pageHex+"\n---\n\n"+
		"[bad](https://www.notion.so/ws/Plans-"+pageHex+")\n\n"+
		"[ok](https://notion.so/ws/example-page)\n\n"+
		"[fine](https://example.com)\n")

	findings, err := newTestService().Lint([]string{path})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, path, findings[0].Path)
	assert.Equal(t, "bad", findings[0].Text)
}

func TestLinks_CachedRedirectSurvivesRuns(t *testing.T) {
	cache := testutil.TestCache(t)
	content := "# 2024-01-02: Day\n\nSee [plans](" + internalLink() + ").\n"

	first := newTestService(WithResolver(links.NewResolver(fakeSource{}, links.WithCache(cache))))
	_, err := first.Links(context.Background(), writeEntry(t, "a.md", content), LinkOptions{})
	require.NoError(t, err)

	redirects, err := cache.List(context.Background())
	require.NoError(t, err)
	require.Len(t, redirects, 1)
	assert.Equal(t, "https://public.example/p", redirects[0].Target)

	// A later run resolves from the cache even when the page cannot be read.
	second := newTestService(WithResolver(links.NewResolver(goneSource{}, links.WithCache(cache))))
	report, err := second.Links(context.Background(), writeEntry(t, "b.md", content), LinkOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.True(t, report.Changed)
}
