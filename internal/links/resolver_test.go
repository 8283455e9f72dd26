package links

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageHex = "abcdef12345678901234567890123456"

type fakeSource struct {
	pages       map[string]*Page
	children    map[string][]ChildBlock
	childrenErr error
	pageCalls   int
	childCalls  int
}

func (f *fakeSource) PageID(rawURL string) (string, error) {
	i := strings.LastIndex(rawURL, "-")
	if i < 0 || len(rawURL)-i-1 != 32 {
		return "", errors.New("no id")
	}
	return rawURL[i+1:], nil
}

func (f *fakeSource) Page(_ context.Context, id string) (*Page, error) {
	f.pageCalls++
	p, ok := f.pages[id]
	if !ok {
		return nil, errors.New("404")
	}
	return p, nil
}

func (f *fakeSource) Children(_ context.Context, id string, limit int) ([]ChildBlock, error) {
	f.childCalls++
	if f.childrenErr != nil {
		return nil, f.childrenErr
	}
	c := f.children[id]
	if len(c) > limit {
		c = c[:limit]
	}
	return c, nil
}

type memCache map[string]string

func (m memCache) Lookup(_ context.Context, id string) (string, bool, error) {
	v, ok := m[id]
	return v, ok, nil
}

func (m memCache) Store(_ context.Context, id, target string) error {
	m[id] = target
	return nil
}

func internalURL() string {
	return "https://www.notion.so/Some-Page-" + pageHex
}

func TestResolve_ExternalPassThrough(t *testing.T) {
	src := &fakeSource{}
	r := NewResolver(src)

	res := r.Resolve(context.Background(), "https://example.com/a")
	assert.Equal(t, External, res.State)
	assert.Equal(t, "https://example.com/a", res.Target)
	assert.Zero(t, src.pageCalls)
}

func TestResolve_RedirectProperty(t *testing.T) {
	src := &fakeSource{pages: map[string]*Page{
		pageHex: {Properties: []Property{
			{ID: "aaaa", Name: "Alpha", Type: "url", Value: "https://alpha.example"},
			{ID: "n%5CG%40", Name: "Public", Type: "url", Value: "https://public.example/post"},
		}},
	}}
	r := NewResolver(src)

	res := r.Resolve(context.Background(), internalURL())
	assert.Equal(t, Rewritten, res.State)
	assert.Equal(t, "https://public.example/post", res.Target)
}

func TestResolve_PropertyScanFallback(t *testing.T) {
	src := &fakeSource{pages: map[string]*Page{
		pageHex: {Properties: []Property{
			{Name: "Zeta", Type: "url", Value: "https://zeta.example"},
			{Name: "Notes", Type: "rich_text", Value: "not a url"},
			{Name: "Beta", Type: "rich_text", Value: "https://beta.example"},
			{Name: "Name", Type: "title", Value: "https://title.example"},
		}},
	}}
	r := NewResolver(src)

	res := r.Resolve(context.Background(), internalURL())
	assert.Equal(t, Rewritten, res.State)
	assert.Equal(t, "https://beta.example", res.Target)
}

func TestResolve_UnresolvedCollectsSnippet(t *testing.T) {
	src := &fakeSource{
		pages: map[string]*Page{pageHex: {Title: "Meeting notes"}},
		children: map[string][]ChildBlock{pageHex: {
			{Type: "table_of_contents"},
			{Type: "paragraph", Text: "First."},
			{Type: "divider"},
			{Type: "paragraph", Text: "  "},
			{Type: "heading_2", Text: "Second"},
			{Type: "paragraph", Text: "Third."},
			{Type: "paragraph", Text: "Fourth."},
		}},
	}
	r := NewResolver(src)

	res := r.Resolve(context.Background(), internalURL())
	assert.Equal(t, Unresolved, res.State)
	assert.Equal(t, internalURL(), res.Target)
	assert.Equal(t, "Meeting notes", res.Title)
	// Only the first five children are fetched; the sixth never arrives.
	assert.Equal(t, "First. Second", res.Snippet)
}

func TestResolve_SnippetErrorsSwallowed(t *testing.T) {
	src := &fakeSource{
		pages:       map[string]*Page{pageHex: {Title: "T"}},
		childrenErr: errors.New("boom"),
	}
	res := NewResolver(src).Resolve(context.Background(), internalURL())
	assert.Equal(t, Unresolved, res.State)
	assert.Equal(t, "T", res.Title)
	assert.Empty(t, res.Snippet)
}

func TestResolve_PageErrorIsUnresolved(t *testing.T) {
	res := NewResolver(&fakeSource{}).Resolve(context.Background(), internalURL())
	assert.Equal(t, Unresolved, res.State)
}

func TestResolve_NilSourceNoLookups(t *testing.T) {
	res := NewResolver(nil).Resolve(context.Background(), internalURL())
	assert.Equal(t, Unresolved, res.State)
}

func TestResolve_MemoizedAndCached(t *testing.T) {
	src := &fakeSource{pages: map[string]*Page{
		pageHex: {Properties: []Property{{ID: DefaultRedirectProperty, Type: "url", Value: "https://x.example"}}},
	}}
	cache := memCache{}
	r := NewResolver(src, WithCache(cache))

	r.Resolve(context.Background(), internalURL())
	r.Resolve(context.Background(), internalURL())
	assert.Equal(t, 1, src.pageCalls)
	assert.Equal(t, "https://x.example", cache[pageHex])

	fresh := NewResolver(src, WithCache(cache))
	res := fresh.Resolve(context.Background(), internalURL())
	assert.Equal(t, Rewritten, res.State)
	assert.Equal(t, 1, src.pageCalls, "cache hit should avoid a page lookup")
}

func TestIsInternal(t *testing.T) {
	r := NewResolver(nil)
	assert.True(t, r.IsInternal("https://www.notion.so/x"))
	assert.True(t, r.IsInternal("https://notion.so/ws/x"))
	assert.False(t, r.IsInternal("https://notion.site/x"))
	assert.False(t, r.IsInternal("not a url"))

	custom := NewResolver(nil, WithInternalHosts("wiki.internal"))
	assert.True(t, custom.IsInternal("http://wiki.internal/p"))
	assert.False(t, custom.IsInternal("https://www.notion.so/x"))
}

func TestRewrite(t *testing.T) {
	src := &fakeSource{pages: map[string]*Page{
		pageHex: {Properties: []Property{{ID: DefaultRedirectProperty, Type: "url", Value: "https://public.example"}}},
	}}
	w := NewRewriter(NewResolver(src))

	body := "See [the post](" + internalURL() + ") and [ext](https://e.com).\n\n`[code](" + internalURL() + ")`\n"
	out, missing := w.Rewrite(context.Background(), body)

	require.Empty(t, missing)
	want := "See [the post](https://public.example) [🄽](" + internalURL() + ") and [ext](https://e.com).\n\n`[code](" + internalURL() + ")`\n"
	assert.Equal(t, want, out)

	again, _ := w.Rewrite(context.Background(), out)
	assert.Equal(t, out, again, "rewriting twice must not add markers")
}

func TestRewrite_MissingLinkContext(t *testing.T) {
	src := &fakeSource{
		pages:    map[string]*Page{pageHex: {Title: "Plans"}},
		children: map[string][]ChildBlock{pageHex: {{Type: "paragraph", Text: "Roadmap draft"}}},
	}
	w := NewRewriter(NewResolver(src))

	body := "## Doing\n\n- worked on [the plan](" + internalURL() + ") today\n- other\n\nunrelated paragraph"
	out, missing := w.Rewrite(context.Background(), body)

	assert.Equal(t, body, out)
	require.Len(t, missing, 1)
	assert.Equal(t, MissingLink{
		Text:        "the plan",
		URL:         internalURL(),
		Context:     "worked on [the plan](" + internalURL() + ") today",
		PageTitle:   "Plans",
		PageSnippet: "Roadmap draft",
	}, missing[0])
}

func TestRewrite_OneRecordPerOccurrence(t *testing.T) {
	w := NewRewriter(NewResolver(nil))
	body := "[a](" + internalURL() + ") and [b](" + internalURL() + ")\n\n```\n[c](" + internalURL() + ")\n```\n![img](" + internalURL() + ")"
	_, missing := w.Rewrite(context.Background(), body)
	require.Len(t, missing, 2)
	assert.Equal(t, "a", missing[0].Text)
	assert.Equal(t, "b", missing[1].Text)
}

func TestRewrite_TitledLink(t *testing.T) {
	src := &fakeSource{pages: map[string]*Page{
		pageHex: {Properties: []Property{{ID: DefaultRedirectProperty, Type: "url", Value: "https://public.example"}}},
	}}
	w := NewRewriter(NewResolver(src))

	out, missing := w.Rewrite(context.Background(), `See [Foo](`+internalURL()+` "tip") now.`)
	require.Empty(t, missing)
	assert.Equal(t, `See [Foo](https://public.example "tip") [🄽](`+internalURL()+`) now.`, out)
	assert.Equal(t, 1, src.pageCalls)
}

func TestRewrite_BareAndAngleURLs(t *testing.T) {
	src := &fakeSource{pages: map[string]*Page{
		pageHex: {Properties: []Property{{ID: DefaultRedirectProperty, Type: "url", Value: "https://public.example"}}},
	}}
	w := NewRewriter(NewResolver(src))

	body := "Bare " + internalURL() + ".\n\nAngle <" + internalURL() + "> here.\n"
	out, missing := w.Rewrite(context.Background(), body)
	require.Empty(t, missing)
	want := "Bare https://public.example [🄽](" + internalURL() + ").\n\nAngle <https://public.example> [🄽](" + internalURL() + ") here.\n"
	assert.Equal(t, want, out)

	again, _ := w.Rewrite(context.Background(), out)
	assert.Equal(t, out, again)
}

func TestRewrite_MissingMatchesInternalReferences(t *testing.T) {
	r := NewResolver(nil)
	body := "[titled](" + internalURL() + " \"tip\")\n\n" +
		"bare " + internalURL() + "\n\n" +
		"<" + internalURL() + ">\n\n" +
		"[plain](" + internalURL() + ") and [ext](https://e.com)\n\n" +
		"`" + internalURL() + "`\n"

	_, missing := NewRewriter(r).Rewrite(context.Background(), body)
	refs := r.InternalReferences(body)

	require.Len(t, missing, 4)
	assert.Len(t, refs, len(missing))
	assert.Equal(t, "titled", missing[0].Text)
	assert.Equal(t, internalURL(), missing[1].Text)
	assert.Equal(t, "bare "+internalURL(), missing[1].Context)
	assert.Equal(t, "plain", missing[3].Text)
}
