package notion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	trailingHexRe = regexp.MustCompile(`(?i)([0-9a-f]{32})$`)
	hexRunRe      = regexp.MustCompile(`(?i)[0-9a-f]{32}`)
)

// IdentifierError reports input from which no page ID could be extracted.
type IdentifierError struct {
	Input string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("notion: cannot extract page id from %q", e.Input)
}

// PageURLToID extracts the page ID from a page URL such as
// https://www.notion.so/Page-Title-<32 hex>?pvs=4 and returns it in dashed
// UUID form. A bare ID, dashed or not, is accepted too.
func PageURLToID(rawURL string) (string, error) {
	path, _, _ := strings.Cut(rawURL, "?")
	path, _, _ = strings.Cut(path, "#")
	m := trailingHexRe.FindString(strings.ReplaceAll(strings.TrimSpace(path), "-", ""))
	if m == "" {
		return "", &IdentifierError{Input: rawURL}
	}
	return formatID(m, rawURL)
}

// IDFromFilename returns the first 32-hex run in name as a dashed UUID. Page
// exports are named "<Title> <32 hex>.md".
func IDFromFilename(name string) (string, error) {
	m := hexRunRe.FindString(name)
	if m == "" {
		return "", &IdentifierError{Input: name}
	}
	return formatID(m, name)
}

func formatID(hex, input string) (string, error) {
	id, err := uuid.Parse(strings.ToLower(hex))
	if err != nil {
		return "", &IdentifierError{Input: input}
	}
	return id.String(), nil
}

// PageURL returns the canonical URL for a page ID.
func PageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}
