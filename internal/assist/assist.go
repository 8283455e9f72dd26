// Package assist asks an external LLM command line tool for link suggestions
// and grammar fixes. Failures are reported to the caller and never retried.
package assist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/starford/daybook/internal/links"
)

const (
	DefaultCommand        = "llm"
	DefaultModel          = "sonar"
	DefaultLookupTimeout  = 30 * time.Second
	DefaultGrammarTimeout = 60 * time.Second

	contextRadius = 150
	contentLimit  = 200

	grammarPrompt = "give me any typo or grammar fixes for this -- preferably as human readable diffs. " +
		"Highlight words to change, rather than whole chunks. Use markdown to express the changes"
)

// ErrTimeout is wrapped by errors from runs that exceeded their timeout.
var ErrTimeout = errors.New("assist: timed out")

// Runner executes a command with optional stdin and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin string) (string, error)
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

type Config struct {
	Command        string
	Model          string
	LookupTimeout  time.Duration
	GrammarTimeout time.Duration
}

type Assistant struct {
	cfg    Config
	runner Runner
}

// New returns an Assistant. Zero config fields take their defaults and a nil
// runner runs real subprocesses.
func New(cfg Config, runner Runner) *Assistant {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.GrammarTimeout <= 0 {
		cfg.GrammarTimeout = DefaultGrammarTimeout
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Assistant{cfg: cfg, runner: runner}
}

// SuggestURL asks the model for the public URL of a missing link.
func (a *Assistant) SuggestURL(ctx context.Context, m links.MissingLink) (string, error) {
	out, err := a.run(ctx, a.cfg.LookupTimeout, []string{"-m", a.cfg.Model, "-x", SuggestionPrompt(m)}, "")
	if err != nil {
		return "", fmt.Errorf("assist: suggest url for %q: %w", m.Text, err)
	}
	return strings.TrimSpace(out), nil
}

// GrammarCheck returns the model's typo and grammar notes for text.
func (a *Assistant) GrammarCheck(ctx context.Context, text string) (string, error) {
	out, err := a.run(ctx, a.cfg.GrammarTimeout, []string{grammarPrompt}, text)
	if err != nil {
		return "", fmt.Errorf("assist: grammar check: %w", err)
	}
	return out, nil
}

func (a *Assistant) run(ctx context.Context, timeout time.Duration, args []string, stdin string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := a.runner.Run(ctx, a.cfg.Command, args, stdin)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return out, err
}

// SuggestionPrompt builds the prompt used to look up a missing link: what the
// linked page contains, where the entry mentions it, and the request itself.
func SuggestionPrompt(m links.MissingLink) string {
	var parts []string
	if m.PageTitle != "" || m.PageSnippet != "" {
		parts = append(parts, fmt.Sprintf("The Notion page linked with '%s' contains:", m.Text))
		if m.PageTitle != "" {
			parts = append(parts, "- Title: "+m.PageTitle)
		}
		if m.PageSnippet != "" {
			parts = append(parts, "- Content: "+truncate(m.PageSnippet, contentLimit))
		}
		parts = append(parts, "")
	}
	if snippet, ok := contextSnippet(m.Context, m.Text); ok {
		parts = append(parts, fmt.Sprintf("The diary entry mentions '%s' in this context: \"%s\"", m.Text, snippet), "")
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, "\n"))
	fmt.Fprintf(&b, "Find the canonical URL for '%s'. ", m.Text)
	fmt.Fprintf(&b, "Look for any URLs mentioned that relate to %s. ", m.Text)
	b.WriteString("If an exact URL is mentioned, return that. Otherwise, return the most likely canonical URL. ")
	b.WriteString("Output only the URL in markdown code blocks.")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// contextSnippet returns up to contextRadius characters either side of the
// first mention of text, with ellipses where context was cut.
func contextSnippet(surrounding, text string) (string, bool) {
	if surrounding == "" || text == "" {
		return "", false
	}
	idx := strings.Index(surrounding, text)
	if idx < 0 {
		return "", false
	}
	r := []rune(surrounding)
	at := len([]rune(surrounding[:idx]))
	start := max(0, at-contextRadius)
	end := min(len(r), at+len([]rune(text))+contextRadius)

	snippet := strings.TrimSpace(string(r[start:end]))
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(r) {
		snippet += "..."
	}
	return snippet, true
}
