package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewKnownProviders(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"openrouter", "openrouter"},
		{"", "openrouter"}, // default
		{"openai", "openai"},
	}
	for _, tt := range tests {
		p, err := New(tt.name, "sk-test")
		if err != nil {
			t.Fatalf("New(%q): %v", tt.name, err)
		}
		if p.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, p.Name(), tt.want)
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("bard", "sk-test"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Temperature != 0.4 {
			t.Errorf("unexpected temperature %v", req.Temperature)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "ping" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAICompatible("test", srv.URL, "sk-test")
	got, err := p.Chat(context.Background(), "ping", "test-model", 0.4)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "pong" {
		t.Errorf("expected 'pong', got %q", got)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
	}))
	defer srv.Close()

	p := NewOpenAICompatible("test", srv.URL, "bad-key")
	_, err := p.Chat(context.Background(), "ping", "m", 0.7)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected API error message to surface, got %v", err)
	}
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	p := NewOpenAICompatible("test", srv.URL, "sk-test")
	if _, err := p.Chat(context.Background(), "ping", "m", 0.7); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
