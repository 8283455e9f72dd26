package slack

import (
	"regexp"
	"strings"
)

var (
	headingRe    = regexp.MustCompile(`^(#{1,6})\s+(.*)`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldStarRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUscoreRe = regexp.MustCompile(`__(.+?)__`)
)

// MarkdownToMrkdwn converts markdown to Slack's mrkdwn dialect. Headings
// become bold lines, links become <url|text> and double-marker bold becomes
// single-star bold. Fenced code is copied verbatim.
func MarkdownToMrkdwn(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inCode := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			out = append(out, line)
			continue
		}
		if inCode {
			out = append(out, line)
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			out = append(out, "*"+m[2]+"*")
			continue
		}
		line = mdLinkRe.ReplaceAllString(line, "<$2|$1>")
		line = boldStarRe.ReplaceAllString(line, "*$1*")
		line = boldUscoreRe.ReplaceAllString(line, "*$1*")
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Post is the content of one chat message.
type Post struct {
	Subject       string
	Body          string
	NotionURL     string
	ButtondownURL string
}

// Text renders the message: a bold subject line, optional links to the other
// destinations, a blank line and the converted body.
func (p Post) Text() string {
	var b strings.Builder
	b.WriteString("*" + p.Subject + "*\n")
	if p.NotionURL != "" {
		b.WriteString("Notion: <" + p.NotionURL + ">\n")
	}
	if p.ButtondownURL != "" {
		b.WriteString("Buttondown: <" + p.ButtondownURL + ">\n")
	}
	b.WriteString("\n")
	b.WriteString(MarkdownToMrkdwn(p.Body))
	return b.String()
}
