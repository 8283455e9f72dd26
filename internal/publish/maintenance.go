package publish

import (
	"context"
	"fmt"

	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/links"
)

// LinkOptions controls a link maintenance run.
type LinkOptions struct {
	// Write saves the rewritten body back to the entry.
	Write bool
	// Assist asks for URL suggestions when links are unresolved and for a
	// grammar check when none are.
	Assist bool
}

// LinkReport is the outcome of a link maintenance run.
type LinkReport struct {
	Body    string
	Missing []links.MissingLink
	Changed bool
	Saved   bool
	Grammar string
}

// Links rewrites the internal links of the entry at path.
func (s *Service) Links(ctx context.Context, path string, opts LinkOptions) (*LinkReport, error) {
	store, rel, err := s.open(path)
	if err != nil {
		return nil, err
	}
	e, err := store.Read(rel)
	if err != nil {
		return nil, err
	}

	body, missing := links.NewRewriter(s.resolver).Rewrite(ctx, e.Body)
	report := &LinkReport{Body: body, Missing: missing, Changed: body != e.Body}
	s.reportMissing(ctx, missing, opts.Assist)

	if report.Changed && opts.Write {
		e.Body = body
		if err := store.Save(rel, e); err != nil {
			return report, fmt.Errorf("publish: save links: %w", err)
		}
		report.Saved = true
		s.out.Success("Rewrote links in %s", path)
	}

	if opts.Assist && len(missing) == 0 && s.assistant != nil {
		s.out.Success("No unresolved links. Running grammar check...")
		text, err := journal.Render(&journal.Entry{Title: e.Title, Date: e.Date, Body: body, Metadata: e.Metadata})
		if err != nil {
			return report, fmt.Errorf("publish: render: %w", err)
		}
		out, err := s.assistant.GrammarCheck(ctx, string(text))
		if err != nil {
			s.out.Error("Grammar check failed: %v", err)
			return report, nil
		}
		report.Grammar = out
	}
	return report, nil
}

// Grammar runs the grammar check over the whole file at path.
func (s *Service) Grammar(ctx context.Context, path string) (string, error) {
	if s.assistant == nil {
		return "", errNoAssistant
	}
	store, rel, err := s.open(path)
	if err != nil {
		return "", err
	}
	e, err := store.Read(rel)
	if err != nil {
		return "", err
	}
	text, err := journal.Render(e)
	if err != nil {
		return "", fmt.Errorf("publish: render: %w", err)
	}
	return s.assistant.GrammarCheck(ctx, string(text))
}

// Finding is an internal URL found by Lint.
type Finding struct {
	Path string
	links.Reference
}

// Lint reports internal URLs left in the bodies of the given entries.
// Header values such as notion_id are expected to be internal and are not
// checked.
func (s *Service) Lint(paths []string) ([]Finding, error) {
	var out []Finding
	for _, p := range paths {
		e, err := s.Info(p)
		if err != nil {
			return out, err
		}
		for _, ref := range s.resolver.InternalReferences(e.Body) {
			out = append(out, Finding{Path: p, Reference: ref})
		}
	}
	return out, nil
}
