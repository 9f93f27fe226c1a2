package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rcliao/sidekick/internal/model"
)

// fakeSlack serves just enough of the Slack Web API to exercise the
// polling loop: a fixed identity, a scripted history feed, and a
// recorder for posted messages.
type fakeSlack struct {
	mu      sync.Mutex
	history []slackMessage // newest first, as the real API returns it
	oldests []string       // oldest= param seen on each history call
	posted  []string       // raw chat.postMessage bodies
	garbage int            // history calls to answer with junk first
	srv     *httptest.Server
}

func newFakeSlack(t *testing.T) *fakeSlack {
	t.Helper()
	f := &fakeSlack{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth.test", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"user_id":"BOT"}`)
	})
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.oldests = append(f.oldests, r.URL.Query().Get("oldest"))
		if f.garbage > 0 {
			f.garbage--
			fmt.Fprint(w, "not json at all")
			return
		}
		json.NewEncoder(w).Encode(historyResponse{Messages: f.history})
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.posted = append(f.posted, string(body))
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestChannel(t *testing.T, f *fakeSlack, channelID string) *SlackChannel {
	t.Helper()
	ch := NewSlackChannel("xoxb-test", channelID)
	ch.baseURL = f.srv.URL
	ch.interval = 5 * time.Millisecond
	return ch
}

func collect(t *testing.T, out <-chan model.ChannelMessage, n int) []model.ChannelMessage {
	t.Helper()
	var got []model.ChannelMessage
	for len(got) < n {
		select {
		case msg := <-out:
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d messages", len(got), n)
		}
	}
	return got
}

func TestSlackListenOrderAndDedup(t *testing.T) {
	f := newFakeSlack(t)
	f.history = []slackMessage{
		{TS: "1700000000.000300", User: "BOT", Text: "hi"},
		{TS: "1700000000.000200", User: "U1", Text: "there"},
		{TS: "1700000000.000100", User: "U1", Text: "hello"},
	}

	ch := newTestChannel(t, f, "C1")
	out := make(chan model.ChannelMessage, 8)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ch.Listen(ctx, out) }()

	got := collect(t, out, 2)
	if got[0].Content != "hello" || got[1].Content != "there" {
		t.Errorf("expected chronological order hello, there; got %q, %q", got[0].Content, got[1].Content)
	}
	for _, msg := range got {
		if msg.Channel != "slack" {
			t.Errorf("expected channel 'slack', got %q", msg.Channel)
		}
		if msg.Sender != "C1" {
			t.Errorf("expected sender 'C1', got %q", msg.Sender)
		}
		if msg.ID == "" {
			t.Error("expected non-empty message id")
		}
	}

	// The same page keeps being served; nothing may be re-emitted, and
	// the bot's own message never counts.
	select {
	case msg := <-out:
		t.Fatalf("unexpected extra message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("listen returned error on cancel: %v", err)
	}

	// Later polls resume from the newest accepted timestamp, not the
	// bot's.
	f.mu.Lock()
	last := f.oldests[len(f.oldests)-1]
	f.mu.Unlock()
	if last != "1700000000.000200" {
		t.Errorf("expected marker 1700000000.000200, got %q", last)
	}
}

func TestSlackListenRequiresChannelID(t *testing.T) {
	f := newFakeSlack(t)
	ch := newTestChannel(t, f, "")

	out := make(chan model.ChannelMessage, 1)
	if err := ch.Listen(context.Background(), out); err == nil {
		t.Fatal("expected error without channel_id")
	}
}

func TestSlackListenSkipsEmptyTextWithoutAdvancing(t *testing.T) {
	f := newFakeSlack(t)
	f.history = []slackMessage{
		{TS: "1700000000.000200", User: "U1", Text: ""},
		{TS: "1700000000.000100", User: "U1", Text: "hello"},
	}

	ch := newTestChannel(t, f, "C1")
	out := make(chan model.ChannelMessage, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ch.Listen(ctx, out)

	got := collect(t, out, 1)
	if got[0].Content != "hello" {
		t.Errorf("expected 'hello', got %q", got[0].Content)
	}

	// Let a few more polls run; the empty message must neither emit nor
	// move the marker.
	time.Sleep(50 * time.Millisecond)
	f.mu.Lock()
	last := f.oldests[len(f.oldests)-1]
	f.mu.Unlock()
	if last != "1700000000.000100" {
		t.Errorf("expected marker to stay at 1700000000.000100, got %q", last)
	}
	select {
	case msg := <-out:
		t.Fatalf("unexpected message: %+v", msg)
	default:
	}
}

func TestSlackListenRecoversFromPollError(t *testing.T) {
	f := newFakeSlack(t)
	f.garbage = 2
	f.history = []slackMessage{
		{TS: "1700000000.000100", User: "U1", Text: "still here"},
	}

	ch := newTestChannel(t, f, "C1")
	out := make(chan model.ChannelMessage, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ch.Listen(ctx, out)

	got := collect(t, out, 1)
	if got[0].Content != "still here" {
		t.Errorf("expected 'still here', got %q", got[0].Content)
	}
}

func TestSlackSend(t *testing.T) {
	f := newFakeSlack(t)
	ch := newTestChannel(t, f, "C1")

	if err := ch.Send(context.Background(), "pong", "C1"); err != nil {
		t.Fatalf("send: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posted) != 1 {
		t.Fatalf("expected 1 posted message, got %d", len(f.posted))
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(f.posted[0]), &body); err != nil {
		t.Fatalf("unmarshal posted body: %v", err)
	}
	if body["channel"] != "C1" || body["text"] != "pong" {
		t.Errorf("unexpected post body: %v", body)
	}
}

func TestSlackHealthCheck(t *testing.T) {
	f := newFakeSlack(t)
	ch := newTestChannel(t, f, "C1")

	if !ch.HealthCheck(context.Background()) {
		t.Error("expected healthy against responsive API")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	ch.baseURL = bad.URL
	if ch.HealthCheck(context.Background()) {
		t.Error("expected unhealthy against failing API")
	}
}

func TestSlackName(t *testing.T) {
	ch := NewSlackChannel("tok", "C1")
	if ch.Name() != "slack" {
		t.Errorf("expected 'slack', got %q", ch.Name())
	}
}
