package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/edgard/livecompanion/internal/database"
	"github.com/edgard/livecompanion/internal/youtube"
)

// fakeStore is an in-memory database.Store for exercising the loop and the
// command router without SQLite.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*database.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*database.User)}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) UpsertUser(_ context.Context, channelID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if u, ok := s.users[channelID]; ok {
		u.DisplayName = displayName
		u.LastSeen = now
		return nil
	}
	s.users[channelID] = &database.User{
		ChannelID:   channelID,
		DisplayName: displayName,
		FirstSeen:   now,
		LastSeen:    now,
	}
	return nil
}

func (s *fakeStore) IncrementMessageCount(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[channelID]
	if !ok {
		return 0, fmt.Errorf("increment for %s: %w", channelID, database.ErrUserNotFound)
	}
	u.MessageCount++
	return u.MessageCount, nil
}

func (s *fakeStore) GetUser(_ context.Context, channelID string) (*database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[channelID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) TopChatters(_ context.Context, limit int) ([]database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]database.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].MessageCount != all[j].MessageCount {
			return all[i].MessageCount > all[j].MessageCount
		}
		return all[i].ChannelID < all[j].ChannelID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

// fakeChat records posted messages and serves canned pages. fetchErrs injects
// a failure for a specific fetch call (1-based); failed calls do not consume a
// page.
type fakeChat struct {
	mu           sync.Mutex
	session      youtube.Session
	resolveErr   error
	pages        []*youtube.Page
	pageIdx      int
	fetchCount   int
	fetchErrs    map[int]error
	posted       []string
	postErr      error
	postAttempts int
	onFetch      func(fetchCount int)
}

func (c *fakeChat) ResolveActiveSession(context.Context) (*youtube.Session, error) {
	if c.resolveErr != nil {
		return nil, c.resolveErr
	}
	session := c.session
	return &session, nil
}

func (c *fakeChat) FetchPage(context.Context, string, string) (*youtube.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchCount++
	if c.onFetch != nil {
		c.onFetch(c.fetchCount)
	}
	if err, ok := c.fetchErrs[c.fetchCount]; ok {
		return nil, err
	}
	if c.pageIdx < len(c.pages) {
		page := c.pages[c.pageIdx]
		c.pageIdx++
		return page, nil
	}
	return &youtube.Page{PollingInterval: time.Millisecond}, nil
}

func (c *fakeChat) PostMessage(_ context.Context, _ string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postAttempts++
	if c.postErr != nil {
		return c.postErr
	}
	c.posted = append(c.posted, text)
	return nil
}

func (c *fakeChat) postedMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.posted))
	copy(out, c.posted)
	return out
}

// fakeResponder returns a fixed reply or error.
type fakeResponder struct {
	reply string
	err   error
	calls int
}

func (r *fakeResponder) Reply(context.Context, string, string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}
