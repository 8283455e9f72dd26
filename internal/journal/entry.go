// Package journal parses daily journal entries from their on-disk markdown
// form into a title, a date, ordered metadata and a body.
package journal

import (
	"fmt"
	"time"
)

// Format records which header style an entry was parsed from.
type Format string

const (
	FormatFrontMatter Format = "front_matter"
	FormatLegacy      Format = "legacy"
	FormatHeading     Format = "heading"
	FormatPlain       Format = "plain"
)

// UntitledTitle is used when no title can be found.
const UntitledTitle = "Untitled"

// Entry is one parsed journal entry.
type Entry struct {
	Title    string
	Date     time.Time
	Body     string
	Metadata *Metadata
	Source   string
	Format   Format
}

// DateString returns the entry date as YYYY-MM-DD.
func (e *Entry) DateString() string {
	return e.Date.Format(DateLayout)
}

// Subject is the "{date}: {title}" line used for email subjects and chat
// headers. An empty title yields just the date.
func (e *Entry) Subject() string {
	if e.Title == "" {
		return e.DateString()
	}
	return fmt.Sprintf("%s: %s", e.DateString(), e.Title)
}
