package notion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/daybook/internal/blocks"
)

// Publisher writes block trees to pages, respecting the API's batch and
// nesting limits.
type Publisher struct {
	client   *Client
	parentID string
	logger   *slog.Logger
}

func NewPublisher(client *Client, parentID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, parentID: parentID, logger: logger}
}

// Create makes a new page under the parent page and returns its URL.
func (p *Publisher) Create(ctx context.Context, title string, bs []blocks.Block) (string, error) {
	first := bs[:min(len(bs), BatchSize)]
	page, err := p.client.CreatePage(ctx, p.parentID, title, encodeBlocks(first))
	if err != nil {
		return "", err
	}
	p.logger.Debug("notion: page created", slog.String("page_id", page.ID), slog.Int("blocks", blocks.Count(bs)))

	if err := p.appendBatches(ctx, page.ID, bs[len(first):]); err != nil {
		return "", err
	}
	if err := p.completeDeferred(ctx, page.ID, bs); err != nil {
		return "", err
	}
	if page.URL == "" {
		return PageURL(page.ID), nil
	}
	return page.URL, nil
}

// Update replaces the title and the whole content of the page at pageURL.
// It returns pageURL unchanged.
func (p *Publisher) Update(ctx context.Context, pageURL, title string, bs []blocks.Block) (string, error) {
	id, err := PageURLToID(pageURL)
	if err != nil {
		return "", err
	}
	if err := p.client.UpdateTitle(ctx, id, title); err != nil {
		return "", err
	}

	existing, err := p.client.ListChildren(ctx, id)
	if err != nil {
		return "", err
	}
	for _, b := range existing {
		if err := p.client.DeleteBlock(ctx, b.ID); err != nil {
			return "", err
		}
	}
	p.logger.Debug("notion: page cleared", slog.String("page_id", id), slog.Int("deleted", len(existing)))

	if err := p.writeTree(ctx, id, bs); err != nil {
		return "", err
	}
	return pageURL, nil
}

func (p *Publisher) writeTree(ctx context.Context, parentID string, bs []blocks.Block) error {
	if err := p.appendBatches(ctx, parentID, bs); err != nil {
		return err
	}
	return p.completeDeferred(ctx, parentID, bs)
}

func (p *Publisher) appendBatches(ctx context.Context, parentID string, bs []blocks.Block) error {
	for start := 0; start < len(bs); start += BatchSize {
		end := min(start+BatchSize, len(bs))
		if _, err := p.client.AppendChildren(ctx, parentID, encodeBlocks(bs[start:end])); err != nil {
			return err
		}
	}
	return nil
}

// completeDeferred appends the parts of the tree that could not be sent with
// their parents. bs must be the complete, already created child list of
// parentID.
func (p *Publisher) completeDeferred(ctx context.Context, parentID string, bs []blocks.Block) error {
	if !slices.ContainsFunc(bs, deferred) {
		return nil
	}
	created, err := p.client.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	if len(created) != len(bs) {
		return fmt.Errorf("notion: %s has %d children, expected %d", parentID, len(created), len(bs))
	}

	for i, b := range bs {
		if !deferred(b) {
			continue
		}
		if !inlineChildren(b) {
			if err := p.writeTree(ctx, created[i].ID, b.Children); err != nil {
				return err
			}
			continue
		}
		kids, err := p.client.ListChildren(ctx, created[i].ID)
		if err != nil {
			return err
		}
		if len(kids) != len(b.Children) {
			return fmt.Errorf("notion: %s has %d children, expected %d", created[i].ID, len(kids), len(b.Children))
		}
		for j, c := range b.Children {
			if len(c.Children) == 0 {
				continue
			}
			if err := p.writeTree(ctx, kids[j].ID, c.Children); err != nil {
				return err
			}
		}
	}
	return nil
}
