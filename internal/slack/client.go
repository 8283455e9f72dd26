// Package slack posts entries to a channel as a message or a channel canvas.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://slack.com/api"
	DefaultChannel = "#journal"

	channelPageSize = 200
)

// APIError is an answer with ok set to false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack: %s: %s", e.Method, e.Code)
}

type Client struct {
	httpClient *resty.Client
	channel    string
	logger     *slog.Logger
}

func NewClient(token, channel, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+token)
	client.SetHeader("Content-Type", "application/json; charset=utf-8")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{httpClient: client, channel: channel, logger: logger}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// Channel is the configured channel name.
func (client *Client) Channel() string {
	return client.channel
}

type apiResponse struct {
	OK               bool      `json:"ok"`
	Error            string    `json:"error"`
	Channel          string    `json:"channel"`
	TS               string    `json:"ts"`
	CanvasID         string    `json:"canvas_id"`
	Channels         []channel `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

type channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type documentContent struct {
	Type     string `json:"type"`
	Markdown string `json:"markdown"`
}

func markdownContent(md string) documentContent {
	return documentContent{Type: "markdown", Markdown: md}
}

func (client *Client) call(ctx context.Context, method string, body any) (*apiResponse, error) {
	var out apiResponse
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("slack: %s: %w", method, err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("slack: %s: response error %d: %s", method, response.StatusCode(), response.String())
	}
	if !out.OK {
		return nil, &APIError{Method: method, Code: out.Error}
	}
	return &out, nil
}

// Message identifies a posted message.
type Message struct {
	Channel string
	TS      string
}

// PostMessage posts text to the configured channel.
func (client *Client) PostMessage(ctx context.Context, text string) (*Message, error) {
	out, err := client.call(ctx, "chat.postMessage", map[string]string{"channel": client.channel, "text": text})
	if err != nil {
		return nil, err
	}
	return &Message{Channel: out.Channel, TS: out.TS}, nil
}

// UpdateMessage replaces the text of an earlier message. channelID must be
// the ID returned when the message was posted.
func (client *Client) UpdateMessage(ctx context.Context, channelID, ts, text string) (*Message, error) {
	out, err := client.call(ctx, "chat.update", map[string]string{"channel": channelID, "ts": ts, "text": text})
	if err != nil {
		return nil, err
	}
	return &Message{Channel: out.Channel, TS: out.TS}, nil
}

// Publish posts p, or edits the earlier message when both channelID and ts
// are known.
func (client *Client) Publish(ctx context.Context, p Post, channelID, ts string) (*Message, error) {
	if channelID != "" && ts != "" {
		client.logger.Debug("slack: updating message", slog.String("channel", channelID), slog.String("ts", ts))
		return client.UpdateMessage(ctx, channelID, ts, p.Text())
	}
	return client.PostMessage(ctx, p.Text())
}

// ChannelID resolves the configured channel name to its ID by walking the
// paginated channel listing. A value that does not start with '#' is taken
// to be an ID already.
func (client *Client) ChannelID(ctx context.Context) (string, error) {
	if !strings.HasPrefix(client.channel, "#") {
		return client.channel, nil
	}
	name := strings.TrimPrefix(client.channel, "#")
	cursor := ""
	for {
		var out apiResponse
		req := client.httpClient.R().
			SetContext(ctx).
			SetQueryParam("limit", fmt.Sprint(channelPageSize)).
			SetQueryParam("types", "public_channel,private_channel").
			SetResult(&out)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		response, err := req.Get("/conversations.list")
		if err != nil {
			return "", fmt.Errorf("slack: conversations.list: %w", err)
		}
		if response.IsError() {
			return "", fmt.Errorf("slack: conversations.list: response error %d: %s", response.StatusCode(), response.String())
		}
		if !out.OK {
			return "", &APIError{Method: "conversations.list", Code: out.Error}
		}
		for _, ch := range out.Channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}
		cursor = out.ResponseMetadata.NextCursor
		if cursor == "" {
			return "", fmt.Errorf("slack: channel not found: %s", client.channel)
		}
	}
}

// Canvas creates a canvas in the configured channel, or replaces the content
// of canvasID when it is set. It returns the canvas ID.
func (client *Client) Canvas(ctx context.Context, title, markdown, canvasID string) (string, error) {
	if canvasID != "" {
		_, err := client.call(ctx, "canvases.edit", map[string]any{
			"canvas_id": canvasID,
			"changes": []map[string]any{{
				"operation":        "replace",
				"document_content": markdownContent(markdown),
			}},
		})
		if err != nil {
			return "", err
		}
		return canvasID, nil
	}

	channelID, err := client.ChannelID(ctx)
	if err != nil {
		return "", err
	}
	out, err := client.call(ctx, "conversations.canvases.create", map[string]any{
		"channel_id":       channelID,
		"title":            title,
		"document_content": markdownContent(markdown),
	})
	if err != nil {
		return "", err
	}
	return out.CanvasID, nil
}
