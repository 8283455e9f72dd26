// Package publish runs the publication pipeline for one entry: resolve
// internal links, convert the body, push to each destination and record the
// resulting identifiers back in the entry header.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/blocks"
	"github.com/starford/daybook/internal/buttondown"
	"github.com/starford/daybook/internal/console"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/links"
	"github.com/starford/daybook/internal/metastore"
	"github.com/starford/daybook/internal/notion"
	"github.com/starford/daybook/internal/slack"
	"github.com/starford/daybook/internal/storage"
)

// NotionPublisher creates and replaces pages.
type NotionPublisher interface {
	Create(ctx context.Context, title string, bs []blocks.Block) (string, error)
	Update(ctx context.Context, pageURL, title string, bs []blocks.Block) (string, error)
}

// DraftPublisher saves newsletter drafts.
type DraftPublisher interface {
	Publish(ctx context.Context, subject, body, knownID string) (*buttondown.Email, error)
}

// ChatPublisher posts messages and canvases.
type ChatPublisher interface {
	Channel() string
	Publish(ctx context.Context, p slack.Post, channelID, ts string) (*slack.Message, error)
	Canvas(ctx context.Context, title, markdown, canvasID string) (string, error)
}

// Assistant suggests link targets and grammar fixes.
type Assistant interface {
	SuggestURL(ctx context.Context, m links.MissingLink) (string, error)
	GrammarCheck(ctx context.Context, text string) (string, error)
}

// Options controls one publish run.
type Options struct {
	Targets []Destination
	// DryRun reports what would happen without any network call or write.
	DryRun bool
	// Canvas posts to chat as a channel canvas instead of a message.
	Canvas bool
	// Draft limits the run to the newsletter draft.
	Draft bool
	// Assist asks the assistant about unresolved links.
	Assist bool
}

// Status is the outcome for one destination.
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry_run"
)

// Result is the outcome for one destination. Ref is the page URL, draft ID,
// message timestamp or canvas ID.
type Result struct {
	Destination Destination
	Status      Status
	Ref         string
	Err         error
}

// Report summarizes a run.
type Report struct {
	Path            string
	Subject         string
	Results         []Result
	Missing         []links.MissingLink
	MetadataUpdated bool
}

// Failed reports whether every destination that was attempted failed.
// Skipped destinations are not attempts, so a run where nothing was
// configured has not failed.
func (r *Report) Failed() bool {
	failed := false
	for _, res := range r.Results {
		switch res.Status {
		case StatusFailed:
			failed = true
		case StatusPublished, StatusDryRun:
			return false
		}
	}
	return failed
}

// Service runs publication and link maintenance for entry files.
type Service struct {
	parser     *journal.Parser
	resolver   *links.Resolver
	notion     NotionPublisher
	buttondown DraftPublisher
	slack      ChatPublisher
	assistant  Assistant
	out        *console.Printer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotion enables the notes store destination.
func WithNotion(p NotionPublisher) Option {
	return func(s *Service) { s.notion = p }
}

// WithButtondown enables the newsletter destination.
func WithButtondown(p DraftPublisher) Option {
	return func(s *Service) { s.buttondown = p }
}

// WithSlack enables the chat destination.
func WithSlack(p ChatPublisher) Option {
	return func(s *Service) { s.slack = p }
}

// WithResolver sets the link resolver.
func WithResolver(r *links.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithAssistant sets the LLM assistant.
func WithAssistant(a Assistant) Option {
	return func(s *Service) { s.assistant = a }
}

// WithPrinter sets the console printer.
func WithPrinter(p *console.Printer) Option {
	return func(s *Service) { s.out = p }
}

// WithParser sets the entry parser.
func WithParser(p *journal.Parser) Option {
	return func(s *Service) { s.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the clock used for the published_at stamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. Destinations that are not configured are
// skipped with a warning when targeted.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = journal.NewParser()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.resolver == nil {
		s.resolver = links.NewResolver(nil, links.WithLogger(s.logger))
	}
	if s.out == nil {
		s.out = console.New(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) open(path string) (*metastore.Store, string, error) {
	fsys, rel, err := storage.ForFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("publish: %w", err)
	}
	return metastore.New(fsys, s.parser), rel, nil
}

// Info parses the entry at path.
func (s *Service) Info(path string) (*journal.Entry, error) {
	store, rel, err := s.open(path)
	if err != nil {
		return nil, err
	}
	return store.Read(rel)
}

// Publish sends the entry at path to the selected destinations. A failing
// destination is recorded in the report and does not stop the others; the
// returned error is reserved for problems with the entry itself.
func (s *Service) Publish(ctx context.Context, path string, opts Options) (*Report, error) {
	store, rel, err := s.open(path)
	if err != nil {
		return nil, err
	}
	e, err := store.Read(rel)
	if err != nil {
		return nil, err
	}

	targets := opts.Targets
	if opts.Draft {
		targets = []Destination{Buttondown}
	} else if len(targets) == 0 {
		targets = AllDestinations
	}

	report := &Report{Path: path, Subject: e.Subject()}
	updates := make(map[string]any)

	if e.Metadata.String(journal.KeyNotionID) == "" {
		if id, err := notion.IDFromFilename(filepath.Base(path)); err == nil {
			s.logger.Debug("publish: notion id taken from filename", slog.String("id", id))
			e.Metadata.Set(journal.KeyNotionID, notion.PageURL(id))
			updates[journal.KeyNotionID] = notion.PageURL(id)
		}
	}

	s.out.Processing("Publishing %s", s.out.Bold(report.Subject))
	body := e.Body
	if opts.DryRun {
		if refs := s.resolver.InternalReferences(body); len(refs) > 0 {
			s.out.Info("%d internal links would be resolved", len(refs))
		}
	} else {
		var missing []links.MissingLink
		body, missing = links.NewRewriter(s.resolver).Rewrite(ctx, body)
		report.Missing = missing
		s.reportMissing(ctx, missing, opts.Assist)
	}
	tree := blocks.Convert(body)

	seeded := maps.Clone(updates)
	for _, d := range targets {
		var res Result
		switch d {
		case Notion:
			res = s.publishNotion(ctx, e, tree, opts, updates)
		case Buttondown:
			res = s.publishButtondown(ctx, e, body, opts, updates)
		case Slack:
			res = s.publishSlack(ctx, e, body, opts, updates)
		}
		if res.Err != nil && res.Status == StatusFailed {
			s.out.Error("%s: %v", d, res.Err)
			s.logger.Warn("publish: destination failed", slog.String("destination", string(d)), slog.String("error", res.Err.Error()))
		}
		report.Results = append(report.Results, res)
	}
	if !opts.DryRun && changed(seeded, updates) {
		stamp := s.now().UTC().Format(time.RFC3339)
		e.Metadata.Set(journal.KeyPublishedAt, stamp)
		updates[journal.KeyPublishedAt] = stamp
	}

	if len(updates) > 0 && !opts.DryRun {
		if err := store.Write(rel, updates); err != nil {
			return report, fmt.Errorf("publish: save metadata: %w", err)
		}
		report.MetadataUpdated = true
		s.out.Success("Metadata saved to %s", path)
	}
	return report, nil
}

// changed reports whether a destination recorded a new identifier.
func changed(before, after map[string]any) bool {
	for k, v := range after {
		if prev, ok := before[k]; !ok || prev != v {
			return true
		}
	}
	return false
}

func skipped(d Destination, env string) Result {
	return Result{Destination: d, Status: StatusSkipped, Err: fmt.Errorf("%s: %w", env, apperr.ErrMissingCredential)}
}

func (s *Service) publishNotion(ctx context.Context, e *journal.Entry, tree []blocks.Block, opts Options, updates map[string]any) Result {
	if s.notion == nil {
		s.out.Warning("NOTION_TOKEN or NOTION_PARENT_PAGE_ID not set, skipping Notion")
		return skipped(Notion, "NOTION_TOKEN")
	}
	existing := e.Metadata.String(journal.KeyNotionID)
	if opts.DryRun {
		if existing != "" {
			s.out.Info("Would update Notion page %s (%d blocks)", console.Hyperlink(existing, ""), blocks.Count(tree))
		} else {
			s.out.Info("Would create Notion page (%d blocks)", blocks.Count(tree))
		}
		return Result{Destination: Notion, Status: StatusDryRun, Ref: existing}
	}

	var url string
	var err error
	if existing != "" {
		url, err = s.notion.Update(ctx, existing, e.Subject(), tree)
	} else {
		url, err = s.notion.Create(ctx, e.Subject(), tree)
	}
	if err != nil {
		return Result{Destination: Notion, Status: StatusFailed, Err: err}
	}
	if url != existing {
		e.Metadata.Set(journal.KeyNotionID, url)
		updates[journal.KeyNotionID] = url
	}
	s.out.Success("Notion: %s", console.Hyperlink(url, ""))
	return Result{Destination: Notion, Status: StatusPublished, Ref: url}
}

func (s *Service) publishButtondown(ctx context.Context, e *journal.Entry, body string, opts Options, updates map[string]any) Result {
	if s.buttondown == nil {
		s.out.Warning("BUTTONDOWN_API_KEY not set, skipping Buttondown")
		return skipped(Buttondown, "BUTTONDOWN_API_KEY")
	}
	existing := e.Metadata.String(journal.KeyButtondownID)
	if opts.DryRun {
		s.out.Info("Would save Buttondown draft %q", e.Subject())
		return Result{Destination: Buttondown, Status: StatusDryRun, Ref: existing}
	}

	email, err := s.buttondown.Publish(ctx, e.Subject(), body, existing)
	if err != nil {
		return Result{Destination: Buttondown, Status: StatusFailed, Err: err}
	}
	if email.ID != "" && email.ID != existing {
		e.Metadata.Set(journal.KeyButtondownID, email.ID)
		updates[journal.KeyButtondownID] = email.ID
	}
	s.out.Success("Buttondown: %s", console.Hyperlink(buttondown.DraftsURL, "draft saved"))
	return Result{Destination: Buttondown, Status: StatusPublished, Ref: email.ID}
}

func (s *Service) publishSlack(ctx context.Context, e *journal.Entry, body string, opts Options, updates map[string]any) Result {
	if s.slack == nil {
		s.out.Warning("SLACK_BOT_TOKEN not set, skipping Slack")
		return skipped(Slack, "SLACK_BOT_TOKEN")
	}
	if opts.Canvas {
		existing := e.Metadata.String(journal.KeySlackCanvasID)
		if opts.DryRun {
			s.out.Info("Would post canvas to %s", s.slack.Channel())
			return Result{Destination: Slack, Status: StatusDryRun, Ref: existing}
		}
		id, err := s.slack.Canvas(ctx, e.Subject(), body, existing)
		if err != nil {
			return Result{Destination: Slack, Status: StatusFailed, Err: err}
		}
		if id != existing {
			e.Metadata.Set(journal.KeySlackCanvasID, id)
			updates[journal.KeySlackCanvasID] = id
		}
		s.out.Success("Slack: canvas in %s", s.slack.Channel())
		return Result{Destination: Slack, Status: StatusPublished, Ref: id}
	}

	channel := e.Metadata.String(journal.KeySlackChannel)
	ts := e.Metadata.String(journal.KeySlackTS)
	if opts.DryRun {
		s.out.Info("Would post message to %s", s.slack.Channel())
		return Result{Destination: Slack, Status: StatusDryRun, Ref: ts}
	}
	post := slack.Post{
		Subject:   e.Subject(),
		Body:      body,
		NotionURL: e.Metadata.String(journal.KeyNotionID),
	}
	if e.Metadata.String(journal.KeyButtondownID) != "" {
		post.ButtondownURL = buttondown.DraftsURL
	}
	msg, err := s.slack.Publish(ctx, post, channel, ts)
	if err != nil {
		return Result{Destination: Slack, Status: StatusFailed, Err: err}
	}
	if msg.Channel != channel {
		e.Metadata.Set(journal.KeySlackChannel, msg.Channel)
		updates[journal.KeySlackChannel] = msg.Channel
	}
	if msg.TS != ts {
		e.Metadata.Set(journal.KeySlackTS, msg.TS)
		updates[journal.KeySlackTS] = msg.TS
	}
	s.out.Success("Slack: message posted in %s", s.slack.Channel())
	return Result{Destination: Slack, Status: StatusPublished, Ref: msg.TS}
}

// reportMissing prints unresolved links and, when asked, the assistant's
// suggested target for each.
func (s *Service) reportMissing(ctx context.Context, missing []links.MissingLink, assist bool) {
	if len(missing) == 0 {
		return
	}
	s.out.Warning("Found %d unresolved internal links", len(missing))
	for _, m := range missing {
		s.out.Warning("%s -> %s", s.out.Bold(m.Text), console.Hyperlink(m.URL, ""))
		if !assist || s.assistant == nil {
			continue
		}
		s.out.Info("Looking up URL for: %s", s.out.Bold(m.Text))
		suggestion, err := s.assistant.SuggestURL(ctx, m)
		if err != nil {
			s.out.Error("Failed to get URL suggestion: %v", err)
			continue
		}
		s.out.Info("Suggested URL: %s", suggestion)
	}
}

var errNoAssistant = errors.New("publish: assistant not configured")
