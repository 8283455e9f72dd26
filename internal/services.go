package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/daybook/internal/assist"
	"github.com/starford/daybook/internal/buttondown"
	"github.com/starford/daybook/internal/console"
	"github.com/starford/daybook/internal/linkcache"
	"github.com/starford/daybook/internal/links"
	"github.com/starford/daybook/internal/notion"
	"github.com/starford/daybook/internal/publish"
	"github.com/starford/daybook/internal/slack"
)

// Services holds the collaborators built from the configuration.
type Services struct {
	Resolver *links.Resolver
	Publish  *publish.Service
	// Cache is nil unless cache.path is set.
	Cache *linkcache.DB

	closers []func() error
}

// NewServices builds the link resolver and the publish service. Destination
// clients are only created when their credentials are present; the publish
// service reports the others as skipped.
func NewServices(cfg *Config, logger *slog.Logger, out *console.Printer) (*Services, error) {
	s := &Services{}

	var notionClient *notion.Client
	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion.Token,
			notion.WithBaseURL(cfg.Notion.BaseURL),
			notion.WithVersion(cfg.Notion.Version),
			notion.WithTimeout(cfg.HTTP.Timeout),
		)
		s.closers = append(s.closers, notionClient.Close)
	}

	resolver, err := s.newResolver(cfg, notionClient, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Resolver = resolver

	opts := []publish.Option{
		publish.WithResolver(resolver),
		publish.WithPrinter(out),
		publish.WithLogger(logger),
	}
	if notionClient != nil && cfg.Notion.ParentPageID != "" {
		opts = append(opts, publish.WithNotion(notion.NewPublisher(notionClient, cfg.Notion.ParentPageID, logger)))
	}
	if cfg.Buttondown.APIKey != "" {
		bd := buttondown.NewClient(cfg.Buttondown.APIKey, cfg.Buttondown.BaseURL, cfg.HTTP.Timeout, logger)
		s.closers = append(s.closers, bd.Close)
		opts = append(opts, publish.WithButtondown(bd))
	}
	if cfg.Slack.Token != "" {
		sc := slack.NewClient(cfg.Slack.Token, cfg.Slack.Channel, cfg.Slack.BaseURL, cfg.HTTP.Timeout, logger)
		s.closers = append(s.closers, sc.Close)
		opts = append(opts, publish.WithSlack(sc))
	}
	if cfg.Assist.Enabled {
		opts = append(opts, publish.WithAssistant(assist.New(assist.Config{
			Command:        cfg.Assist.Command,
			Model:          cfg.Assist.Model,
			LookupTimeout:  cfg.Assist.LookupTimeout,
			GrammarTimeout: cfg.Assist.GrammarTimeout,
		}, nil)))
	}

	s.Publish = publish.NewService(opts...)
	return s, nil
}

func (s *Services) newResolver(cfg *Config, client *notion.Client, logger *slog.Logger) (*links.Resolver, error) {
	opts := []links.ResolverOption{
		links.WithLogger(logger),
		links.WithRedirectProperty(cfg.Notion.RedirectProperty),
	}
	if len(cfg.Notion.InternalHosts) > 0 {
		opts = append(opts, links.WithInternalHosts(cfg.Notion.InternalHosts...))
	}
	if cfg.Cache.Path != "" {
		db, err := linkcache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("init link cache: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.Cache = db
		opts = append(opts, links.WithCache(db))
	}

	if client == nil {
		return links.NewResolver(nil, opts...), nil
	}
	return links.NewResolver(notion.NewPageSource(client), opts...), nil
}

var errCacheDisabled = errors.New("link cache is disabled; set cache.path")

// Redirects lists the cached link redirects.
func (s *Services) Redirects(ctx context.Context) ([]linkcache.Redirect, error) {
	if s.Cache == nil {
		return nil, errCacheDisabled
	}
	return s.Cache.List(ctx)
}

// ForgetRedirect drops the cached redirect of a page, given its URL or ID,
// so the next run looks it up again. It returns the page ID.
func (s *Services) ForgetRedirect(ctx context.Context, ref string) (string, error) {
	if s.Cache == nil {
		return "", errCacheDisabled
	}
	id, err := notion.PageURLToID(ref)
	if err != nil {
		return "", err
	}
	if err := s.Cache.Forget(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Close releases clients and the link cache.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
