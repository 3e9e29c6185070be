package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/dispatch"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
)

// fakeAPI records sendMessage calls and serves queued updates.
type fakeAPI struct {
	mu      sync.Mutex
	sent    []string
	updates []Update
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/botTOKEN/sendMessage":
		var body struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.sent = append(f.sent, body.Text)
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	case "/botTOKEN/getUpdates":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": f.updates})
		f.updates = nil
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Not Found"}`))
	}
}

func newFake(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)
	c := NewClient("TOKEN")
	c.APIBase = srv.URL
	return f, c
}

type echoExecutor struct {
	calls []dispatch.Caller
}

func (e *echoExecutor) Execute(_ context.Context, caller dispatch.Caller, input string) (*dispatch.Reply, error) {
	e.calls = append(e.calls, caller)
	if input == "/fail" {
		return nil, errors.New("usage: fail")
	}
	return &dispatch.Reply{Messages: []string{caller.Name + " ran " + input}}, nil
}

func TestClientRoundTrip(t *testing.T) {
	f, c := newFake(t)
	f.updates = []Update{{UpdateID: 7, Message: &Message{Text: "/patrol"}}}

	ups, err := c.GetUpdates(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, 7, ups[0].UpdateID)

	require.NoError(t, c.SendMessage(context.Background(), 42, "hello"))
	assert.Equal(t, []string{"hello"}, f.sent)

	c.Token = "WRONG"
	assert.Error(t, c.SendMessage(context.Background(), 42, "hello"))
}

func TestHandleMessage(t *testing.T) {
	f, c := newFake(t)
	exec := &echoExecutor{}
	bot := NewBot(c, 42, NewDirectory(), exec, zap.NewNop())
	ctx := context.Background()

	from := User{ID: 1001, FirstName: "Davis", Username: "davis"}
	bot.handleMessage(ctx, &Message{From: from, Chat: Chat{ID: 42}, Text: "/patrol"})
	bot.handleMessage(ctx, &Message{From: from, Chat: Chat{ID: 42}, Text: "just chatting"})
	bot.handleMessage(ctx, &Message{From: from, Chat: Chat{ID: 99}, Text: "/patrol"})
	bot.handleMessage(ctx, &Message{From: from, Chat: Chat{ID: 42}, Text: "/fail"})

	assert.Equal(t, []string{"@davis ran /patrol", "⚠️ usage: fail"}, f.sent)
	require.Len(t, exec.calls, 2)
	assert.Equal(t, "1001", exec.calls[0].ID)
}

func TestHandleMessageRateLimit(t *testing.T) {
	f, c := newFake(t)
	bot := NewBot(c, 42, NewDirectory(), &echoExecutor{}, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		bot.handleMessage(ctx, &Message{From: User{ID: 5}, Chat: Chat{ID: 42}, Text: "/top"})
	}
	assert.Len(t, f.sent, 3)
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	d.Learn(User{ID: 1, Username: "Sarge"})
	d.Learn(User{ID: 2, FirstName: "Nobody"})

	id, ok := d.Resolve("@sarge")
	assert.True(t, ok)
	assert.Equal(t, "1", id)
	assert.Equal(t, "@Sarge", d.Name("1"))
	assert.Equal(t, "Nobody", d.Name("2"))

	id, ok = d.Resolve("@12345")
	assert.True(t, ok)
	assert.Equal(t, "12345", id)

	_, ok = d.Resolve("@ghost")
	assert.False(t, ok)
}

func TestPublisher(t *testing.T) {
	f, c := newFake(t)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	p := NewPublisher(c, 42, NewDirectory(), func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, p.Announce(ctx, event.Announcement{
		ID:       ulid.Make(),
		Class:    event.ClassAttack,
		Deadline: now.Add(time.Minute),
	}))
	require.NoError(t, p.Publish(ctx, event.Outcome{Class: event.ClassWorldBoss, Remaining: 12}))

	assert.Equal(t, []string{
		"🚨 The base is under attack! /defend within 1m0s.",
		"💨 The world boss escaped with 12 HP left.",
	}, f.sent)
}
