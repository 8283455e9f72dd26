// Package notion talks to the Notion REST API: it publishes converted entries
// as pages and looks up pages for the link resolver.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	// BatchSize is the most blocks a single children array may hold.
	BatchSize = 100
	// MaxDepth is the deepest nesting accepted in one request.
	MaxDepth = 2
)

// Client is a thin Notion REST client.
type Client struct {
	httpClient *resty.Client
}

// Option configures a Client.
type Option func(*resty.Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *resty.Client) {
		if u != "" {
			c.SetBaseURL(u)
		}
	}
}

// WithVersion overrides the Notion-Version header.
func WithVersion(v string) Option {
	return func(c *resty.Client) {
		if v != "" {
			c.SetHeader("Notion-Version", v)
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

func NewClient(token string, opts ...Option) *Client {
	client := resty.New()
	client.SetBaseURL(DefaultBaseURL)
	client.SetHeader("Authorization", "Bearer "+token)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Notion-Version", DefaultVersion)
	for _, opt := range opts {
		opt(client)
	}
	return &Client{httpClient: client}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// Page is a page as returned by the API.
type Page struct {
	ID         string                   `json:"id"`
	URL        string                   `json:"url"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PropertyValue is a page property. Only the types the link resolver reads
// are decoded.
type PropertyValue struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	URL      *string    `json:"url,omitempty"`
}

// Block is a block as returned by the API.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	RichText    []RichText
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	b.ID, b.Type, b.HasChildren = head.ID, head.Type, head.HasChildren

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	raw, ok := payload[head.Type]
	if !ok {
		return nil
	}
	var content struct {
		RichText []RichText `json:"rich_text"`
	}
	// Non-text blocks carry other shapes; they simply have no rich text.
	if err := json.Unmarshal(raw, &content); err == nil {
		b.RichText = content.RichText
	}
	return nil
}

// PlainText returns the concatenated text of the block.
func (b Block) PlainText() string {
	return joinText(b.RichText)
}

// BlockList is one page of a children listing.
type BlockList struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type titleProperty struct {
	Title []RichText `json:"title"`
}

type pageRequest struct {
	Parent     *parentRef               `json:"parent,omitempty"`
	Properties map[string]titleProperty `json:"properties"`
	Children   []BlockObject            `json:"children,omitempty"`
}

type parentRef struct {
	PageID string `json:"page_id"`
}

type childrenRequest struct {
	Children []BlockObject `json:"children"`
}

func titleProps(title string) map[string]titleProperty {
	return map[string]titleProperty{"title": {Title: plainRichText(title)}}
}

// CreatePage creates a page under parentID with the given title and first
// batch of children.
func (client *Client) CreatePage(ctx context.Context, parentID, title string, children []BlockObject) (*Page, error) {
	var page Page
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(pageRequest{
			Parent:     &parentRef{PageID: parentID},
			Properties: titleProps(title),
			Children:   children,
		}).
		SetResult(&page).
		Post("/pages")
	if err != nil {
		return nil, fmt.Errorf("notion: create page: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("notion: create page: response error %d: %s", response.StatusCode(), response.String())
	}
	return &page, nil
}

// UpdateTitle replaces the title of page id.
func (client *Client) UpdateTitle(ctx context.Context, id, title string) error {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(pageRequest{Properties: titleProps(title)}).
		Patch("/pages/{id}")
	if err != nil {
		return fmt.Errorf("notion: update title: %w", err)
	}
	if response.IsError() {
		return fmt.Errorf("notion: update title: response error %d: %s", response.StatusCode(), response.String())
	}
	return nil
}

// GetPage fetches page id.
func (client *Client) GetPage(ctx context.Context, id string) (*Page, error) {
	var page Page
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&page).
		Get("/pages/{id}")
	if err != nil {
		return nil, fmt.Errorf("notion: get page: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("notion: get page: response error %d: %s", response.StatusCode(), response.String())
	}
	return &page, nil
}

// ChildrenPage fetches one page of the children of block id. An empty cursor
// starts from the beginning.
func (client *Client) ChildrenPage(ctx context.Context, id, cursor string, size int) (*BlockList, error) {
	var list BlockList
	req := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParam("page_size", strconv.Itoa(size)).
		SetResult(&list)
	if cursor != "" {
		req.SetQueryParam("start_cursor", cursor)
	}
	response, err := req.Get("/blocks/{id}/children")
	if err != nil {
		return nil, fmt.Errorf("notion: list children: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("notion: list children: response error %d: %s", response.StatusCode(), response.String())
	}
	return &list, nil
}

// ListChildren returns every child of block id, following pagination.
func (client *Client) ListChildren(ctx context.Context, id string) ([]Block, error) {
	var out []Block
	cursor := ""
	for {
		list, err := client.ChildrenPage(ctx, id, cursor, BatchSize)
		if err != nil {
			return nil, err
		}
		out = append(out, list.Results...)
		if !list.HasMore || list.NextCursor == nil || *list.NextCursor == "" {
			return out, nil
		}
		cursor = *list.NextCursor
	}
}

// AppendChildren appends children to block id and returns the created
// top-level blocks.
func (client *Client) AppendChildren(ctx context.Context, id string, children []BlockObject) ([]Block, error) {
	var list BlockList
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(childrenRequest{Children: children}).
		SetResult(&list).
		Patch("/blocks/{id}/children")
	if err != nil {
		return nil, fmt.Errorf("notion: append children: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("notion: append children: response error %d: %s", response.StatusCode(), response.String())
	}
	return list.Results, nil
}

// DeleteBlock archives block id.
func (client *Client) DeleteBlock(ctx context.Context, id string) error {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/blocks/{id}")
	if err != nil {
		return fmt.Errorf("notion: delete block: %w", err)
	}
	if response.IsError() {
		return fmt.Errorf("notion: delete block: response error %d: %s", response.StatusCode(), response.String())
	}
	return nil
}
