package journal

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used everywhere in entries.
const DateLayout = "2006-01-02"

var isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// FindDate returns the first valid ISO date in s along with the index just
// past it. Substrings that look like dates but are not valid calendar days
// are skipped.
func FindDate(s string) (time.Time, int, bool) {
	for _, loc := range isoDateRe.FindAllStringIndex(s, -1) {
		d, err := time.Parse(DateLayout, s[loc[0]:loc[1]])
		if err == nil {
			return d, loc[1], true
		}
	}
	return time.Time{}, 0, false
}

// ExtractDateTitle splits text like "2024-04-23: Title" into a date and a
// title. When no date is present, now's calendar day is used and the whole
// trimmed text becomes the title.
func ExtractDateTitle(text string, now time.Time) (time.Time, string) {
	d, end, ok := FindDate(text)
	if !ok {
		return Today(now), strings.TrimSpace(text)
	}
	title := strings.TrimLeft(text[end:], ": ")
	return d, strings.TrimSpace(title)
}

// DateFromFilename returns the first ISO date in the base name of path.
func DateFromFilename(path string) (time.Time, bool) {
	if path == "" {
		return time.Time{}, false
	}
	d, _, ok := FindDate(filepath.Base(path))
	return d, ok
}

// Today truncates t to its calendar day in UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
