package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/edgard/livecompanion/internal/config"
)

const defaultPollingInterval = 2 * time.Second

// Client is a REST adapter for the YouTube Data API v3 implementing
// ChatService. Token acquisition and refresh happen outside this process; the
// client only attaches the configured bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// NewClient creates a YouTube Data API client from configuration.
// A nil httpClient gets a default one with the configured timeout.
func NewClient(cfg config.YouTubeConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		token:      cfg.AccessToken,
		logger:     logger.With("component", "youtube_client"),
	}
}

// ResolveActiveSession locates the active live broadcast of the authenticated
// channel and returns its live chat ID and start time.
func (c *Client) ResolveActiveSession(ctx context.Context) (*Session, error) {
	query := url.Values{
		"part":            {"snippet"},
		"broadcastStatus": {"active"},
		"broadcastType":   {"all"},
		"mine":            {"true"},
		"maxResults":      {"1"},
	}

	var resp broadcastListResponse
	if err := c.doRequest(ctx, http.MethodGet, "/liveBroadcasts", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list live broadcasts: %w", err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet.LiveChatID == "" {
		return nil, ErrNoActiveBroadcast
	}

	session := &Session{LiveChatID: resp.Items[0].Snippet.LiveChatID}
	if raw := resp.Items[0].Snippet.ActualStartTime; raw != "" {
		startedAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.logger.WarnContext(ctx, "Could not parse broadcast start time", "value", raw, "error", err)
		} else {
			session.StartedAt = startedAt
		}
	}

	c.logger.InfoContext(ctx, "Resolved active live broadcast",
		"live_chat_id", session.LiveChatID, "started_at", session.StartedAt)
	return session, nil
}

// FetchPage retrieves one page of live chat messages and normalizes the items.
func (c *Client) FetchPage(ctx context.Context, liveChatID, pageToken string) (*Page, error) {
	query := url.Values{
		"liveChatId": {liveChatID},
		"part":       {"snippet,authorDetails"},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp chatMessageListResponse
	if err := c.doRequest(ctx, http.MethodGet, "/liveChat/messages", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list live chat messages: %w", err)
	}

	page := &Page{
		NextPageToken:   resp.NextPageToken,
		PollingInterval: defaultPollingInterval,
		Messages:        make([]Message, 0, len(resp.Items)),
	}
	if resp.PollingIntervalMillis > 0 {
		page.PollingInterval = time.Duration(resp.PollingIntervalMillis) * time.Millisecond
	}

	for _, item := range resp.Items {
		msg := Message{
			ID:          item.ID,
			ChannelID:   item.AuthorDetails.ChannelID,
			DisplayName: item.AuthorDetails.DisplayName,
			Text:        item.Snippet.DisplayMessage,
			IsModerator: item.AuthorDetails.IsChatModerator,
			IsOwner:     item.AuthorDetails.IsChatOwner,
			IsSponsor:   item.AuthorDetails.IsChatSponsor,
		}
		if raw := item.Snippet.PublishedAt; raw != "" {
			if publishedAt, err := time.Parse(time.RFC3339, raw); err == nil {
				msg.PublishedAt = publishedAt
			} else {
				c.logger.DebugContext(ctx, "Could not parse message publish time",
					"message_id", item.ID, "value", raw, "error", err)
			}
		}
		page.Messages = append(page.Messages, msg)
	}

	c.logger.DebugContext(ctx, "Fetched chat page",
		"live_chat_id", liveChatID, "count", len(page.Messages),
		"polling_interval", page.PollingInterval)
	return page, nil
}

// PostMessage publishes a text message into the live chat.
func (c *Client) PostMessage(ctx context.Context, liveChatID, text string) error {
	query := url.Values{"part": {"snippet"}}
	body := newChatMessageInsertRequest(liveChatID, text)

	// The insert response body is not needed; decode into a throwaway map.
	var resp map[string]any
	if err := c.doRequest(ctx, http.MethodPost, "/liveChat/messages", query, body, &resp); err != nil {
		return fmt.Errorf("failed to post chat message: %w", err)
	}

	c.logger.DebugContext(ctx, "Posted chat message", "live_chat_id", liveChatID, "length", len(text))
	return nil
}

// doRequest handles the HTTP request/response cycle with proper error handling
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, response interface{}) error {
	req, err := c.buildRequest(ctx, method, path, query, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error.Message == "" {
			return fmt.Errorf("API error with status %d", resp.StatusCode)
		}
		return &apiErr.Error
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// buildRequest creates a new HTTP request with proper headers
func (c *Client) buildRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
