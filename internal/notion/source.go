package notion

import (
	"context"
	"strings"

	"github.com/starford/daybook/internal/links"
)

var _ links.PageSource = (*PageSource)(nil)

// PageSource adapts a Client to the link resolver.
type PageSource struct {
	client *Client
}

func NewPageSource(client *Client) *PageSource {
	return &PageSource{client: client}
}

func (s *PageSource) PageID(rawURL string) (string, error) {
	return PageURLToID(rawURL)
}

func (s *PageSource) Page(ctx context.Context, id string) (*links.Page, error) {
	page, err := s.client.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &links.Page{ID: page.ID}
	for name, pv := range page.Properties {
		switch pv.Type {
		case "title":
			out.Title = joinText(pv.Title)
		case "url":
			if pv.URL != nil {
				out.Properties = append(out.Properties, links.Property{ID: pv.ID, Name: name, Type: pv.Type, Value: *pv.URL})
			}
		case "rich_text":
			out.Properties = append(out.Properties, links.Property{ID: pv.ID, Name: name, Type: pv.Type, Value: joinText(pv.RichText)})
		}
	}
	return out, nil
}

func (s *PageSource) Children(ctx context.Context, id string, limit int) ([]links.ChildBlock, error) {
	list, err := s.client.ChildrenPage(ctx, id, "", limit)
	if err != nil {
		return nil, err
	}
	out := make([]links.ChildBlock, 0, len(list.Results))
	for _, b := range list.Results {
		out = append(out, links.ChildBlock{Type: b.Type, Text: b.PlainText()})
	}
	return out, nil
}

func joinText(rts []RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.text())
	}
	return b.String()
}
