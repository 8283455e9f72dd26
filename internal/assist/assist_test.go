package assist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/daybook/internal/links"
)

type fakeRunner struct {
	name  string
	args  []string
	stdin string
	out   string
	err   error
	block bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, stdin string) (string, error) {
	f.name, f.args, f.stdin = name, args, stdin
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

func TestSuggestURL(t *testing.T) {
	r := &fakeRunner{out: "```\nhttps://x.example\n```\n"}
	a := New(Config{}, r)

	got, err := a.SuggestURL(context.Background(), links.MissingLink{Text: "x"})
	if err != nil {
		t.Fatalf("SuggestURL: %v", err)
	}
	if got != "```\nhttps://x.example\n```" {
		t.Errorf("got %q", got)
	}
	if r.name != "llm" || r.args[0] != "-m" || r.args[1] != "sonar" || r.args[2] != "-x" {
		t.Errorf("command = %s %v", r.name, r.args)
	}
}

func TestSuggestURL_Timeout(t *testing.T) {
	a := New(Config{LookupTimeout: 10 * time.Millisecond}, &fakeRunner{block: true})

	_, err := a.SuggestURL(context.Background(), links.MissingLink{Text: "x"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestGrammarCheck(t *testing.T) {
	r := &fakeRunner{out: "no issues"}
	a := New(Config{Command: "mycli"}, r)

	got, err := a.GrammarCheck(context.Background(), "Some text.")
	if err != nil || got != "no issues" {
		t.Fatalf("GrammarCheck = %q, %v", got, err)
	}
	if r.name != "mycli" || r.stdin != "Some text." || len(r.args) != 1 || r.args[0] != grammarPrompt {
		t.Errorf("run = %s %v stdin=%q", r.name, r.args, r.stdin)
	}
}

func TestGrammarCheck_Failure(t *testing.T) {
	a := New(Config{}, &fakeRunner{err: errors.New("exit status 1")})
	if _, err := a.GrammarCheck(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSuggestionPrompt(t *testing.T) {
	m := links.MissingLink{
		Text:        "the plan",
		Context:     "worked on the plan today",
		PageTitle:   "Plans",
		PageSnippet: strings.Repeat("a", 250),
	}
	got := SuggestionPrompt(m)
	want := "The Notion page linked with 'the plan' contains:\n" +
		"- Title: Plans\n" +
		"- Content: " + strings.Repeat("a", 200) + "...\n" +
		"\n" +
		"The diary entry mentions 'the plan' in this context: \"worked on the plan today\"\n" +
		"Find the canonical URL for 'the plan'. Look for any URLs mentioned that relate to the plan. " +
		"If an exact URL is mentioned, return that. Otherwise, return the most likely canonical URL. " +
		"Output only the URL in markdown code blocks."
	if got != want {
		t.Errorf("prompt =\n%s\nwant\n%s", got, want)
	}
}

func TestContextSnippet(t *testing.T) {
	ctx := strings.Repeat("x", 200) + "LINK" + strings.Repeat("y", 200)
	got, ok := contextSnippet(ctx, "LINK")
	if !ok {
		t.Fatal("expected snippet")
	}
	want := "..." + strings.Repeat("x", 150) + "LINK" + strings.Repeat("y", 150) + "..."
	if got != want {
		t.Errorf("snippet = %q", got)
	}
	if _, ok := contextSnippet("nothing here", "LINK"); ok {
		t.Error("absent text should give no snippet")
	}
}
