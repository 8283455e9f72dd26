// Package links resolves and rewrites references to internal notes pages so
// that published entries point at public destinations.
package links

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

// DefaultRedirectProperty is the page property holding a page's public URL.
const DefaultRedirectProperty = `n\G@`

// snippet limits.
const (
	snippetFetch = 5
	snippetKeep  = 3
)

// State is the outcome of resolving a link.
type State string

const (
	External   State = "external"
	Rewritten  State = "rewritten"
	Unresolved State = "unresolved"
)

// Resolution describes where a link should point.
type Resolution struct {
	Target  string `json:"target"`
	State   State  `json:"state"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Property is one page property reduced to text.
type Property struct {
	ID    string
	Name  string
	Type  string
	Value string
}

// Page is the subset of an internal page the resolver reads.
type Page struct {
	ID         string
	Title      string
	Properties []Property
}

// ChildBlock is the type and plain text of a page child.
type ChildBlock struct {
	Type string
	Text string
}

// PageSource looks up internal pages.
type PageSource interface {
	// PageID extracts the page identifier from an internal URL.
	PageID(rawURL string) (string, error)
	Page(ctx context.Context, id string) (*Page, error)
	// Children returns at most limit top-level blocks of the page.
	Children(ctx context.Context, id string, limit int) ([]ChildBlock, error)
}

// Cache remembers resolved redirects across runs.
type Cache interface {
	Lookup(ctx context.Context, pageID string) (string, bool, error)
	Store(ctx context.Context, pageID, target string) error
}

// Resolver maps internal page URLs to public targets. Results are memoized
// for the lifetime of the resolver.
type Resolver struct {
	source      PageSource
	cache       Cache
	hosts       map[string]bool
	redirectKey string
	logger      *slog.Logger
	memo        map[string]Resolution
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache sets a redirect cache.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithInternalHosts replaces the set of hosts treated as internal.
func WithInternalHosts(hosts ...string) ResolverOption {
	return func(r *Resolver) {
		r.hosts = make(map[string]bool, len(hosts))
		for _, h := range hosts {
			r.hosts[strings.ToLower(h)] = true
		}
	}
}

// WithRedirectProperty sets the property ID or name checked first.
func WithRedirectProperty(key string) ResolverOption {
	return func(r *Resolver) {
		if key != "" {
			r.redirectKey = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a Resolver. source may be nil, in which case every
// internal link is reported unresolved without lookups.
func NewResolver(source PageSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:      source,
		hosts:       map[string]bool{"notion.so": true, "www.notion.so": true},
		redirectKey: DefaultRedirectProperty,
		logger:      slog.Default(),
		memo:        make(map[string]Resolution),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsInternal reports whether rawURL points at the internal notes store.
func (r *Resolver) IsInternal(rawURL string) bool {
	return isInternal(r.hosts, rawURL)
}

func isInternal(hosts map[string]bool, rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	return hosts[strings.ToLower(u.Hostname())]
}

// Resolve decides where rawURL should point. External URLs are returned as is
// without any lookup.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) Resolution {
	if !r.IsInternal(rawURL) {
		return Resolution{Target: rawURL, State: External}
	}
	if res, ok := r.memo[rawURL]; ok {
		return res
	}
	res := r.resolveInternal(ctx, rawURL)
	r.memo[rawURL] = res
	return res
}

func (r *Resolver) resolveInternal(ctx context.Context, rawURL string) Resolution {
	unresolved := Resolution{Target: rawURL, State: Unresolved}
	if r.source == nil {
		return unresolved
	}

	id, err := r.source.PageID(rawURL)
	if err != nil {
		r.logger.Debug("links: no page id", slog.String("url", rawURL), slog.String("error", err.Error()))
		return unresolved
	}

	if r.cache != nil {
		target, ok, err := r.cache.Lookup(ctx, id)
		if err != nil {
			r.logger.Warn("links: cache lookup failed", slog.String("page_id", id), slog.String("error", err.Error()))
		} else if ok {
			return Resolution{Target: target, State: Rewritten}
		}
	}

	page, err := r.source.Page(ctx, id)
	if err != nil {
		r.logger.Warn("links: page lookup failed", slog.String("page_id", id), slog.String("error", err.Error()))
		return unresolved
	}

	if target := r.redirectTarget(page); target != "" && target != rawURL {
		if r.cache != nil {
			if err := r.cache.Store(ctx, id, target); err != nil {
				r.logger.Warn("links: cache store failed", slog.String("page_id", id), slog.String("error", err.Error()))
			}
		}
		return Resolution{Target: target, State: Rewritten}
	}

	unresolved.Title = page.Title
	unresolved.Snippet = r.snippet(ctx, id)
	return unresolved
}

// redirectTarget returns the well-known redirect property if set, otherwise
// the first URL-valued property in name order.
func (r *Resolver) redirectTarget(page *Page) string {
	for _, p := range page.Properties {
		if r.isRedirectKey(p) && isURL(p.Value) {
			return strings.TrimSpace(p.Value)
		}
	}

	props := make([]Property, 0, len(page.Properties))
	for _, p := range page.Properties {
		if p.Type == "url" || p.Type == "rich_text" {
			props = append(props, p)
		}
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	for _, p := range props {
		if isURL(p.Value) {
			return strings.TrimSpace(p.Value)
		}
	}
	return ""
}

func (r *Resolver) isRedirectKey(p Property) bool {
	if p.ID == r.redirectKey || p.Name == r.redirectKey {
		return true
	}
	decoded, err := url.PathUnescape(p.ID)
	return err == nil && decoded == r.redirectKey
}

// snippet joins the text of the first few content blocks. Lookup errors are
// swallowed since the snippet is only context for a human.
func (r *Resolver) snippet(ctx context.Context, id string) string {
	children, err := r.source.Children(ctx, id, snippetFetch)
	if err != nil {
		r.logger.Debug("links: snippet lookup failed", slog.String("page_id", id), slog.String("error", err.Error()))
		return ""
	}
	var parts []string
	for _, c := range children {
		if c.Type == "divider" || c.Type == "table_of_contents" {
			continue
		}
		if text := strings.TrimSpace(c.Text); text != "" {
			parts = append(parts, text)
		}
		if len(parts) == snippetKeep {
			break
		}
	}
	return strings.Join(parts, " ")
}

func isURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
