// Package entryservice is the read-only domain layer shared by the preview
// API and the MCP server.
package entryservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/blocks"
	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/links"
	"github.com/starford/daybook/internal/slack"
	"github.com/starford/daybook/internal/storage"
	"github.com/starford/daybook/internal/watch"
	"gopkg.in/yaml.v3"
)

// Field is one header key and its value, in persistence order.
type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// EntryDetail is the full representation of an entry.
type EntryDetail struct {
	Path       string         `json:"path"`
	Title      string         `json:"title"`
	Date       string         `json:"date"`
	Subject    string         `json:"subject"`
	Format     journal.Format `json:"format"`
	Metadata   []Field        `json:"metadata"`
	Body       string         `json:"body"`
	Checksum   string         `json:"checksum"`
	BlockCount int            `json:"block_count"`
	Outline    []string       `json:"outline,omitempty"`
	ETag       string         `json:"-"`
}

// LinkItem is a reference found in an entry body.
type LinkItem struct {
	links.Reference
	Internal bool `json:"internal"`
}

// Service reads entries through storage and lists them from the catalog.
type Service struct {
	store    storage.Provider
	catalog  *watch.Catalog
	parser   *journal.Parser
	resolver *links.Resolver
}

// NewService creates a new entry service. resolver decides which links are
// internal; nil uses the default hosts.
func NewService(store storage.Provider, catalog *watch.Catalog, resolver *links.Resolver) *Service {
	if resolver == nil {
		resolver = links.NewResolver(nil)
	}
	return &Service{
		store:    store,
		catalog:  catalog,
		parser:   journal.NewParser(),
		resolver: resolver,
	}
}

// ListEntries returns a page of cataloged entries, newest first. query, when
// set, keeps entries whose subject or path contains it (case-insensitive).
func (s *Service) ListEntries(_ context.Context, limit, offset int, query string) ([]watch.Summary, int) {
	all := s.catalog.List()
	if query != "" {
		q := strings.ToLower(query)
		filtered := all[:0]
		for _, e := range all {
			if strings.Contains(strings.ToLower(e.Subject), q) || strings.Contains(strings.ToLower(e.Path), q) {
				filtered = append(filtered, e)
			}
		}
		all = filtered
	}
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total
}

// GetEntry parses the entry at path.
func (s *Service) GetEntry(_ context.Context, path string) (*EntryDetail, error) {
	data, e, err := s.read(path)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, e.Metadata.Len())
	for _, k := range e.Metadata.Ordered() {
		v, _ := e.Metadata.Get(k)
		fields = append(fields, Field{Key: k, Value: jsonValue(v)})
	}
	tree := blocks.Convert(e.Body)
	return &EntryDetail{
		Path:       path,
		Title:      e.Title,
		Date:       e.DateString(),
		Subject:    e.Subject(),
		Format:     e.Format,
		Metadata:   fields,
		Body:       e.Body,
		Checksum:   checksum.Sum(data),
		BlockCount: blocks.Count(tree),
		Outline:    blocks.Outline(tree),
		ETag:       checksum.ETag(data),
	}, nil
}

// Blocks converts the entry body at path into content blocks.
func (s *Service) Blocks(_ context.Context, path string) ([]blocks.Block, error) {
	_, e, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return blocks.Convert(e.Body), nil
}

// Mrkdwn renders the entry at path as the chat message it would publish.
func (s *Service) Mrkdwn(_ context.Context, path string) (string, error) {
	_, e, err := s.read(path)
	if err != nil {
		return "", err
	}
	return slack.Post{Subject: e.Subject(), Body: e.Body}.Text(), nil
}

// Links lists the references in the entry body at path.
func (s *Service) Links(_ context.Context, path string) ([]LinkItem, error) {
	_, e, err := s.read(path)
	if err != nil {
		return nil, err
	}
	refs := links.Scan(e.Body)
	out := make([]LinkItem, len(refs))
	for i, r := range refs {
		out[i] = LinkItem{Reference: r, Internal: s.resolver.IsInternal(r.URL)}
	}
	return out, nil
}

// Raw returns the file content at path.
func (s *Service) Raw(_ context.Context, path string) ([]byte, error) {
	data, _, err := s.read(path)
	return data, err
}

func (s *Service) read(path string) ([]byte, *journal.Entry, error) {
	if !strings.HasSuffix(path, ".md") {
		return nil, nil, fmt.Errorf("entryservice: %s: %w", path, apperr.ErrUnsupported)
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	return data, s.parser.Parse(string(data), path), nil
}

// jsonValue renders dates the way the header stores them and decodes
// structured header values into plain maps and slices.
func jsonValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(journal.DateLayout)
	case *yaml.Node:
		var out any
		if err := t.Decode(&out); err != nil {
			return t.Value
		}
		return out
	}
	return v
}
