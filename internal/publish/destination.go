package publish

import (
	"fmt"
	"strings"

	"github.com/starford/daybook/internal/apperr"
)

// Destination names a publication target.
type Destination string

const (
	Notion     Destination = "notion"
	Buttondown Destination = "buttondown"
	Slack      Destination = "slack"
)

// AllDestinations is the default target list, in publication order. Chat
// comes last so its message can link to the page.
var AllDestinations = []Destination{Notion, Buttondown, Slack}

// ParseDestinations validates names and returns them in publication order
// without duplicates. No names means every destination.
func ParseDestinations(names []string) ([]Destination, error) {
	if len(names) == 0 {
		return AllDestinations, nil
	}
	want := make(map[Destination]bool, len(names))
	for _, n := range names {
		d := Destination(strings.ToLower(strings.TrimSpace(n)))
		switch d {
		case Notion, Buttondown, Slack:
			want[d] = true
		default:
			return nil, fmt.Errorf("publish: %q: %w", n, apperr.ErrInvalidTarget)
		}
	}
	var out []Destination
	for _, d := range AllDestinations {
		if want[d] {
			out = append(out, d)
		}
	}
	return out, nil
}
