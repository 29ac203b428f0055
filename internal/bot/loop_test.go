package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/edgard/livecompanion/internal/config"
	"github.com/edgard/livecompanion/internal/youtube"
)

func testBotConfig() *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			PersonaName:      "Companion",
			AchievementTiers: []int64{1, 10, 50, 100},
			ReplyMaxLength:   250,
			TopChattersLimit: 5,
			MinPollInterval:  time.Millisecond,
		},
	}
}

func newTestBot(t *testing.T, cfg *config.Config, store *fakeStore, chat *fakeChat, responder *fakeResponder) *Bot {
	t.Helper()

	sched, err := NewScheduler(discardLogger(), &config.SchedulerConfig{}, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return NewBot(discardLogger(), cfg, store, chat, responder, sched)
}

func TestExtractTriggerPrompt(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		text       string
		persona    string
		wantPrompt string
		wantOK     bool
	}{
		{
			name:       "question prefix",
			text:       "?what time is it",
			persona:    "Companion",
			wantPrompt: "what time is it",
			wantOK:     true,
		},
		{
			name:       "question prefix with surrounding space",
			text:       "  ?what time is it  ",
			persona:    "Companion",
			wantPrompt: "what time is it",
			wantOK:     true,
		},
		{
			name:       "persona mid-sentence",
			text:       "Companion, you there?",
			persona:    "Companion",
			wantPrompt: "Companion, you there?",
			wantOK:     true,
		},
		{
			name:       "persona case-insensitive",
			text:       "hey cOMPANION what's up",
			persona:    "Companion",
			wantPrompt: "hey cOMPANION what's up",
			wantOK:     true,
		},
		{
			name:    "plain message does not trigger",
			text:    "hello everyone",
			persona: "Companion",
			wantOK:  false,
		},
		{
			name:    "question marks only yield empty prompt",
			text:    "???",
			persona: "Companion",
			wantOK:  false,
		},
		{
			name:    "empty text",
			text:    "",
			persona: "Companion",
			wantOK:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prompt, ok := extractTriggerPrompt(tc.text, tc.persona)
			if ok != tc.wantOK {
				t.Fatalf("extractTriggerPrompt(%q) ok=%v, want %v", tc.text, ok, tc.wantOK)
			}
			if ok && prompt != tc.wantPrompt {
				t.Errorf("prompt = %q, want %q", prompt, tc.wantPrompt)
			}
		})
	}
}

func TestTruncateReply(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 300)
	got := truncateReply(long, 250)
	if len([]rune(got)) != 250 {
		t.Fatalf("truncated length = %d, want 250", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated reply %q should end in ellipsis", got[240:])
	}
	if got[:247] != long[:247] {
		t.Error("truncated reply should keep the first 247 characters")
	}

	exact := strings.Repeat("b", 250)
	if truncateReply(exact, 250) != exact {
		t.Error("reply at the limit should be unchanged")
	}

	if truncateReply("short", 250) != "short" {
		t.Error("short reply should be unchanged")
	}
}

func TestProcessMessageEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	chat := &fakeChat{session: youtube.Session{LiveChatID: "chat1"}}
	responder := &fakeResponder{reply: "sure thing"}
	b := newTestBot(t, testBotConfig(), store, chat, responder)
	router := newCommandRouter(store, discardLogger(), 5, time.Time{})
	session := &chat.session

	msg := func(text string) youtube.Message {
		return youtube.Message{ID: "m", ChannelID: "U1", DisplayName: "Ann", Text: text}
	}

	// First message: tier-1 achievement, no command, no AI reply.
	b.processMessage(ctx, session, router, msg("hi"))
	posted := chat.postedMessages()
	if len(posted) != 1 {
		t.Fatalf("after first message got %d posts, want 1 (achievement): %v", len(posted), posted)
	}
	if !strings.Contains(posted[0], "first message") || !strings.Contains(posted[0], "Ann") {
		t.Errorf("tier-1 celebration = %q", posted[0])
	}
	if responder.calls != 0 {
		t.Errorf("responder called %d times for a plain message", responder.calls)
	}

	// Command: replies with own stats, no conversational reply.
	b.processMessage(ctx, session, router, msg("!stats"))
	posted = chat.postedMessages()
	if len(posted) != 2 {
		t.Fatalf("after !stats got %d posts, want 2: %v", len(posted), posted)
	}
	if !strings.Contains(posted[1], "1 messages") {
		t.Errorf("!stats reply = %q, want count of 1", posted[1])
	}

	// Nine more plain messages: the tenth observed message lands on tier 10.
	for i := 0; i < 9; i++ {
		b.processMessage(ctx, session, router, msg("hello again"))
	}
	posted = chat.postedMessages()
	last := posted[len(posted)-1]
	if !strings.Contains(last, "10 messages") {
		t.Errorf("tier-10 celebration = %q", last)
	}
	// Achievements only on exact tiers: 1, 10, plus the two command replies.
	if len(posted) != 3 {
		t.Fatalf("got %d posts, want 3: %v", len(posted), posted)
	}

	user, err := store.GetUser(ctx, "U1")
	if err != nil || user == nil {
		t.Fatalf("GetUser: %v, %v", user, err)
	}
	if user.MessageCount != 11 {
		t.Errorf("message count = %d, want 11", user.MessageCount)
	}
}

func TestProcessMessageTriggerUsesResponder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	chat := &fakeChat{session: youtube.Session{LiveChatID: "chat1"}}
	responder := &fakeResponder{reply: "it is tea time"}
	cfg := testBotConfig()
	cfg.Bot.AchievementTiers = []int64{100} // keep achievements out of the way
	b := newTestBot(t, cfg, store, chat, responder)
	router := newCommandRouter(store, discardLogger(), 5, time.Time{})

	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "?what time is it",
	})

	posted := chat.postedMessages()
	if len(posted) != 1 || posted[0] != "it is tea time" {
		t.Fatalf("posted = %v, want responder reply", posted)
	}
	if responder.calls != 1 {
		t.Errorf("responder calls = %d, want 1", responder.calls)
	}
}

func TestProcessMessageResponderFailureFallsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	chat := &fakeChat{session: youtube.Session{LiveChatID: "chat1"}}
	responder := &fakeResponder{err: errors.New("backend down")}
	cfg := testBotConfig()
	cfg.Bot.AchievementTiers = []int64{100}
	b := newTestBot(t, cfg, store, chat, responder)
	router := newCommandRouter(store, discardLogger(), 5, time.Time{})

	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "Companion, are you there?",
	})

	posted := chat.postedMessages()
	if len(posted) != 1 || posted[0] != "Ann, interesting!" {
		t.Fatalf("posted = %v, want deterministic fallback", posted)
	}
}

func TestProcessMessageTruncatesLongReply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	chat := &fakeChat{session: youtube.Session{LiveChatID: "chat1"}}
	responder := &fakeResponder{reply: strings.Repeat("x", 300)}
	cfg := testBotConfig()
	cfg.Bot.AchievementTiers = []int64{100}
	b := newTestBot(t, cfg, store, chat, responder)
	router := newCommandRouter(store, discardLogger(), 5, time.Time{})

	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "?tell me everything",
	})

	posted := chat.postedMessages()
	if len(posted) != 1 {
		t.Fatalf("posted = %v, want one reply", posted)
	}
	if len([]rune(posted[0])) != 250 || !strings.HasSuffix(posted[0], "...") {
		t.Errorf("reply length = %d, want 250 with ellipsis", len([]rune(posted[0])))
	}
}

func TestRunChatLoopStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	store := newFakeStore()
	chat := &fakeChat{
		session: youtube.Session{LiveChatID: "chat1"},
		pages: []*youtube.Page{
			{
				Messages: []youtube.Message{
					{ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "hi"},
				},
				NextPageToken:   "tok1",
				PollingInterval: time.Millisecond,
			},
		},
	}
	chat.onFetch = func(fetchCount int) {
		if fetchCount >= 2 {
			cancel()
		}
	}
	responder := &fakeResponder{reply: "ok"}
	b := newTestBot(t, testBotConfig(), store, chat, responder)

	err := b.runChatLoop(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runChatLoop error = %v, want context.Canceled", err)
	}

	user, err := store.GetUser(context.Background(), "U1")
	if err != nil || user == nil {
		t.Fatalf("GetUser after loop: %v, %v", user, err)
	}
	if user.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", user.MessageCount)
	}
}

func TestProcessMessageCountsNonTextEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	chat := &fakeChat{session: youtube.Session{LiveChatID: "chat1"}}
	responder := &fakeResponder{reply: "ok"}
	b := newTestBot(t, testBotConfig(), store, chat, responder)
	router := newCommandRouter(store, discardLogger(), 5, time.Time{})

	// A non-text event (empty display message) still bumps engagement and can
	// land on a tier, but triggers neither commands nor the responder.
	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "",
	})

	user, err := store.GetUser(ctx, "U1")
	if err != nil || user == nil {
		t.Fatalf("GetUser: %v, %v", user, err)
	}
	if user.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", user.MessageCount)
	}
	posted := chat.postedMessages()
	if len(posted) != 1 || !strings.Contains(posted[0], "first message") {
		t.Errorf("posted = %v, want only the tier-1 celebration", posted)
	}
	if responder.calls != 0 {
		t.Errorf("responder called %d times for a non-text event", responder.calls)
	}

	// No author: nothing to attribute the event to.
	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m2", ChannelID: "", DisplayName: "", Text: "hi",
	})
	if user, _ := store.GetUser(ctx, "U1"); user.MessageCount != 1 {
		t.Errorf("author-less event changed message count to %d", user.MessageCount)
	}
}

func TestProcessMessagePostFailureKeepsPipelineGoing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	chat := &fakeChat{
		session: youtube.Session{LiveChatID: "chat1"},
		postErr: errors.New("liveChatMessages.insert: quota exceeded"),
	}
	b := newTestBot(t, testBotConfig(), store, chat, &fakeResponder{reply: "ok"})
	router := newCommandRouter(store, discardLogger(), 5, time.Time{})

	// The tier-1 celebration post fails, but the same message must still reach
	// command dispatch, which attempts its own post.
	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "!stats",
	})

	if chat.postAttempts != 2 {
		t.Fatalf("post attempts = %d, want 2 (celebration + command reply)", chat.postAttempts)
	}
	user, err := store.GetUser(ctx, "U1")
	if err != nil || user == nil {
		t.Fatalf("GetUser: %v, %v", user, err)
	}
	if user.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", user.MessageCount)
	}

	// Once the transport recovers, the next message posts normally.
	chat.postErr = nil
	b.processMessage(ctx, &chat.session, router, youtube.Message{
		ID: "m2", ChannelID: "U1", DisplayName: "Ann", Text: "!stats",
	})
	posted := chat.postedMessages()
	if len(posted) != 1 || !strings.Contains(posted[0], "2 messages") {
		t.Fatalf("posted = %v, want a single !stats reply with count 2", posted)
	}
}

func TestRunChatLoopRecoversFromFetchError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	store := newFakeStore()
	chat := &fakeChat{
		session:   youtube.Session{LiveChatID: "chat1"},
		fetchErrs: map[int]error{1: errors.New("liveChatMessages.list: backend error")},
		pages: []*youtube.Page{
			{
				Messages: []youtube.Message{
					{ID: "m1", ChannelID: "U1", DisplayName: "Ann", Text: "hi"},
				},
				PollingInterval: time.Millisecond,
			},
		},
	}
	chat.onFetch = func(fetchCount int) {
		if fetchCount >= 3 {
			cancel()
		}
	}
	b := newTestBot(t, testBotConfig(), store, chat, &fakeResponder{reply: "ok"})

	err := b.runChatLoop(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runChatLoop error = %v, want context.Canceled", err)
	}

	// The page after the failed fetch was still processed.
	user, err := store.GetUser(context.Background(), "U1")
	if err != nil || user == nil {
		t.Fatalf("GetUser after loop: %v, %v", user, err)
	}
	if user.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", user.MessageCount)
	}
}

func TestRunChatLoopFailsWithoutActiveSession(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{resolveErr: youtube.ErrNoActiveBroadcast}
	b := newTestBot(t, testBotConfig(), newFakeStore(), chat, &fakeResponder{})

	err := b.runChatLoop(context.Background())
	if !errors.Is(err, youtube.ErrNoActiveBroadcast) {
		t.Fatalf("runChatLoop error = %v, want ErrNoActiveBroadcast", err)
	}
}
