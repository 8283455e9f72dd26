// Package watch keeps an in-memory catalog of the entries directory current
// with the files on disk.
package watch

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/storage"
)

// Summary describes one entry file.
type Summary struct {
	Path      string         `json:"path"`
	Title     string         `json:"title"`
	Date      string         `json:"date"`
	Subject   string         `json:"subject"`
	Format    journal.Format `json:"format"`
	Checksum  string         `json:"checksum"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Catalog is a concurrency-safe map of entry summaries keyed by relative
// path.
type Catalog struct {
	parser *journal.Parser

	mu      sync.RWMutex
	entries map[string]Summary
}

// NewCatalog creates an empty catalog. A nil parser uses journal defaults.
func NewCatalog(parser *journal.Parser) *Catalog {
	if parser == nil {
		parser = journal.NewParser()
	}
	return &Catalog{parser: parser, entries: make(map[string]Summary)}
}

// Get returns the summary for path.
func (c *Catalog) Get(path string) (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[path]
	return s, ok
}

// List returns all summaries, newest date first.
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	out := make([]Summary, 0, len(c.entries))
	for _, s := range c.entries {
		out = append(out, s)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b Summary) int {
		if n := cmp.Compare(b.Date, a.Date); n != 0 {
			return n
		}
		return cmp.Compare(a.Path, b.Path)
	})
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// upsert parses data and stores its summary. It reports whether the entry is
// new and whether anything changed; content with an unchanged checksum is
// not parsed again.
func (c *Catalog) upsert(path string, data []byte, updatedAt time.Time) (s Summary, created, changed bool) {
	sum := checksum.Sum(data)

	c.mu.RLock()
	old, exists := c.entries[path]
	c.mu.RUnlock()
	if exists && old.Checksum == sum {
		return old, false, false
	}

	e := c.parser.Parse(string(data), path)
	s = Summary{
		Path:      path,
		Title:     e.Title,
		Date:      e.DateString(),
		Subject:   e.Subject(),
		Format:    e.Format,
		Checksum:  sum,
		UpdatedAt: updatedAt,
	}

	c.mu.Lock()
	c.entries[path] = s
	c.mu.Unlock()
	return s, !exists, true
}

func (c *Catalog) remove(path string) (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[path]
	if ok {
		delete(c.entries, path)
	}
	return s, ok
}

// Sync walks the entries directory and brings the catalog up to date:
// new or changed files are parsed, files gone from disk are dropped.
func (c *Catalog) Sync(store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if s, ok := c.Get(m.Path); ok && s.Checksum == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		s, created, changed := c.upsert(m.Path, data, m.UpdatedAt)
		if changed {
			logger.Debug("sync: cataloged", slog.String("path", m.Path))
			notify(cb, created, s)
		}
	}

	for _, s := range c.List() {
		if _, ok := disk[s.Path]; ok {
			continue
		}
		if removed, ok := c.remove(s.Path); ok {
			logger.Debug("sync: removed stale", slog.String("path", s.Path))
			if cb != nil {
				cb(KindDeleted, removed)
			}
		}
	}
	return nil
}

func notify(cb EventCallback, created bool, s Summary) {
	if cb == nil {
		return
	}
	if created {
		cb(KindCreated, s)
	} else {
		cb(KindUpdated, s)
	}
}
