// Package metastore persists per-entry publication state in the entry's own
// front-matter header.
package metastore

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/storage"
)

// Store reads and rewrites entry files through a storage.Provider.
type Store struct {
	fs     storage.Provider
	parser *journal.Parser
}

// New creates a Store. A nil parser uses journal defaults.
func New(fs storage.Provider, parser *journal.Parser) *Store {
	if parser == nil {
		parser = journal.NewParser()
	}
	return &Store{fs: fs, parser: parser}
}

// Read parses the entry at path.
func (s *Store) Read(path string) (*journal.Entry, error) {
	data, err := s.fs.Read(path)
	if err != nil {
		return nil, fmt.Errorf("metastore: read: %w", err)
	}
	return s.parser.Parse(string(data), path), nil
}

// Write merges updates into the entry header at path and rewrites the file.
// Keys are normalized; "title" and "date" update the entry itself. The body
// is written back unchanged and applying the same updates twice yields the
// same bytes.
func (s *Store) Write(path string, updates map[string]any) error {
	e, err := s.Read(path)
	if err != nil {
		return err
	}
	if err := Apply(e, updates); err != nil {
		return err
	}
	return s.Save(path, e)
}

// Save renders e and writes it to path.
func (s *Store) Save(path string, e *journal.Entry) error {
	out, err := journal.Render(e)
	if err != nil {
		return fmt.Errorf("metastore: render %s: %w", path, err)
	}
	if err := s.fs.Write(path, out); err != nil {
		return fmt.Errorf("metastore: write: %w", err)
	}
	return nil
}

// Apply merges updates into e. Existing keys are replaced in place and new
// keys are appended sorted by name.
func Apply(e *journal.Entry, updates map[string]any) error {
	if e.Metadata == nil {
		e.Metadata = journal.NewMetadata()
	}
	for _, key := range slices.Sorted(maps.Keys(updates)) {
		value := updates[key]
		switch journal.NormalizeKey(key) {
		case journal.KeyTitle:
			title, ok := value.(string)
			if !ok {
				return fmt.Errorf("metastore: title must be a string, got %T", value)
			}
			e.Title = title
		case journal.KeyDate:
			d, err := toDate(value)
			if err != nil {
				return err
			}
			e.Date = d
		default:
			v, err := toValue(value)
			if err != nil {
				return fmt.Errorf("metastore: %s: %w", key, err)
			}
			e.Metadata.Set(key, v)
		}
	}
	return nil
}

func toDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return journal.Today(t), nil
	case string:
		if d, _, ok := journal.FindDate(t); ok {
			return d, nil
		}
		return time.Time{}, fmt.Errorf("metastore: no ISO date in %q", t)
	default:
		return time.Time{}, fmt.Errorf("metastore: date must be a string or time, got %T", v)
	}
}

func toValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case time.Time:
		return journal.Today(t), nil
	case fmt.Stringer:
		return t.String(), nil
	case int, int64, float64, bool:
		return fmt.Sprint(t), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
