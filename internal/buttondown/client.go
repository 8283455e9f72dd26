// Package buttondown saves entries as newsletter drafts.
package buttondown

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://api.buttondown.email/v1"
	// DraftsURL is where drafts can be reviewed in the web UI.
	DraftsURL = "https://buttondown.email/emails"

	statusDraft = "draft"
)

var isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

type Client struct {
	httpClient *resty.Client
	logger     *slog.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Token "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{httpClient: client, logger: logger}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

type Email struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body,omitempty"`
	Status  string `json:"status"`
}

type emailList struct {
	Results []Email `json:"results"`
	Next    *string `json:"next"`
}

type emailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Status  string `json:"status"`
}

// ListDrafts returns draft emails keyed by the first ISO date in their
// subject. Drafts without a date are skipped; a later draft with the same date
// replaces an earlier one.
func (client *Client) ListDrafts(ctx context.Context) (map[string]Email, error) {
	drafts := make(map[string]Email)
	next := "/emails"
	for page := 0; next != ""; page++ {
		var list emailList
		req := client.httpClient.R().SetContext(ctx).SetResult(&list)
		if page == 0 {
			// Later pages come back as absolute URLs that already carry the query.
			req.SetQueryParam("status", statusDraft)
		}
		response, err := req.Get(next)
		if err != nil {
			return nil, fmt.Errorf("buttondown: list drafts: %w", err)
		}
		if response.IsError() {
			return nil, fmt.Errorf("buttondown: list drafts: response error %d: %s", response.StatusCode(), response.String())
		}
		for _, e := range list.Results {
			if e.Status != statusDraft {
				continue
			}
			if date := isoDateRe.FindString(e.Subject); date != "" {
				drafts[date] = e
			}
		}
		next = ""
		if list.Next != nil {
			next = *list.Next
		}
	}
	return drafts, nil
}

// CreateDraft creates a new draft.
func (client *Client) CreateDraft(ctx context.Context, subject, body string) (*Email, error) {
	var email Email
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(emailRequest{Subject: subject, Body: body, Status: statusDraft}).
		SetResult(&email).
		Post("/emails")
	if err != nil {
		return nil, fmt.Errorf("buttondown: create draft: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("buttondown: create draft: response error %d: %s", response.StatusCode(), response.String())
	}
	return &email, nil
}

// UpdateDraft replaces the subject and body of draft id.
func (client *Client) UpdateDraft(ctx context.Context, id, subject, body string) (*Email, error) {
	var email Email
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(emailRequest{Subject: subject, Body: body, Status: statusDraft}).
		SetResult(&email).
		Patch("/emails/{id}")
	if err != nil {
		return nil, fmt.Errorf("buttondown: update draft: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("buttondown: update draft: response error %d: %s", response.StatusCode(), response.String())
	}
	return &email, nil
}

// Publish saves subject and body as a draft. A known draft ID is updated in
// place; otherwise a draft whose subject carries the same date is reused, and
// failing both a new draft is created.
func (client *Client) Publish(ctx context.Context, subject, body, knownID string) (*Email, error) {
	if knownID != "" {
		return client.UpdateDraft(ctx, knownID, subject, body)
	}
	if date := isoDateRe.FindString(subject); date != "" {
		drafts, err := client.ListDrafts(ctx)
		if err != nil {
			return nil, err
		}
		if draft, ok := drafts[date]; ok {
			client.logger.Debug("buttondown: reusing draft", slog.String("id", draft.ID), slog.String("date", date))
			return client.UpdateDraft(ctx, draft.ID, subject, body)
		}
	}
	return client.CreateDraft(ctx, subject, body)
}
