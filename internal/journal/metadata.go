package journal

import (
	"strings"
	"time"
)

// Canonical metadata keys.
const (
	KeyTitle         = "title"
	KeyDate          = "date"
	KeyNotionID      = "notion_id"
	KeyButtondownID  = "buttondown_id"
	KeySlackChannel  = "slack_channel"
	KeySlackTS       = "slack_ts"
	KeySlackCanvasID = "slack_canvas_id"
	KeyLastModified  = "last_modified"
	KeyPublishedAt   = "published_at"
)

// PreferredOrder lists the keys that are written first, in this order.
// Any other keys follow in encounter order.
var PreferredOrder = []string{
	KeyTitle,
	KeyDate,
	KeyNotionID,
	KeyButtondownID,
	KeySlackChannel,
	KeySlackTS,
	KeySlackCanvasID,
	KeyLastModified,
	KeyPublishedAt,
}

// NormalizeKey converts a header key like "Notion-Id" into its canonical
// form "notion_id".
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("-", "_", " ", "_").Replace(key)
}

// Metadata is an insertion-ordered map of canonical keys to values.
// Values are string, time.Time (a calendar date) or *yaml.Node for
// structured values that are carried through untouched.
type Metadata struct {
	keys   []string
	values map[string]any
}

// NewMetadata returns an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]any)}
}

// Set stores value under the normalized key. New keys are appended; existing
// keys keep their position.
func (m *Metadata) Set(key string, value any) {
	key = NormalizeKey(key)
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[NormalizeKey(key)]
	return v, ok
}

// String returns the value under key rendered as a string. Dates are
// formatted as YYYY-MM-DD; structured values yield "".
func (m *Metadata) String(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(DateLayout)
	default:
		return ""
	}
}

// Delete removes key.
func (m *Metadata) Delete(key string) {
	key = NormalizeKey(key)
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a shallow copy.
func (m *Metadata) Clone() *Metadata {
	c := NewMetadata()
	if m == nil {
		return c
	}
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}
	return c
}

// Ordered returns the keys sorted for persistence: PreferredOrder first,
// then everything else in encounter order.
func (m *Metadata) Ordered() []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range PreferredOrder {
		if _, ok := m.Get(k); ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range m.Keys() {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}
