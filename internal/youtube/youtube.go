// Package youtube implements the live-chat collaborator for the companion bot
// on top of the YouTube Data API v3. It exposes the small ChatService surface
// the chat loop consumes, so tests can swap in an in-memory fake.
package youtube

import (
	"context"
	"errors"
	"time"
)

// ErrNoActiveBroadcast is returned by ResolveActiveSession when the
// authenticated channel has no live broadcast. The bot cannot run without one.
var ErrNoActiveBroadcast = errors.New("no active live broadcast found")

// Session identifies the live chat the bot attaches to.
type Session struct {
	LiveChatID string
	StartedAt  time.Time // zero when the API omits actualStartTime
}

// Message is one normalized live chat message. Values are transient; only the
// engagement stats derived from them are persisted.
type Message struct {
	ID          string
	ChannelID   string
	DisplayName string
	Text        string
	IsModerator bool
	IsOwner     bool
	IsSponsor   bool
	PublishedAt time.Time
}

// Page is one poll result: the messages since the previous page token, the
// token for the next fetch (empty means restart at the live edge), and the
// API-recommended minimum wait before polling again.
type Page struct {
	Messages        []Message
	NextPageToken   string
	PollingInterval time.Duration
}

// ChatService is the transport surface consumed by the chat loop.
type ChatService interface {
	// ResolveActiveSession locates the current live broadcast of the
	// authenticated channel. Returns ErrNoActiveBroadcast when there is none.
	ResolveActiveSession(ctx context.Context) (*Session, error)

	// FetchPage retrieves the next page of chat messages. An empty pageToken
	// starts from the live edge.
	FetchPage(ctx context.Context, liveChatID, pageToken string) (*Page, error)

	// PostMessage publishes a text message into the live chat.
	PostMessage(ctx context.Context, liveChatID, text string) error
}
