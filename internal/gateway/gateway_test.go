package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rcliao/sidekick/internal/memory"
	"github.com/rcliao/sidekick/internal/model"
)

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Chat(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	return p.reply, p.err
}

func newTestServer(t *testing.T) (*Server, memory.Store) {
	t.Helper()
	store := memory.NewMarkdownStore(t.TempDir())
	t.Cleanup(func() { store.Close() })
	srv := &Server{
		Store:       store,
		Provider:    &stubProvider{reply: "pong"},
		Model:       "test-model",
		Temperature: 0.7,
		AutoSave:    true,
		Version:     "test",
	}
	return srv, store
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["memory"] != "markdown" {
		t.Errorf("expected memory 'markdown', got %v", body["memory"])
	}
	if body["memory_healthy"] != true {
		t.Errorf("expected memory_healthy true, got %v", body["memory_healthy"])
	}
	if body["version"] != "test" {
		t.Errorf("expected version 'test', got %v", body["version"])
	}
}

func TestWebhook(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"message":"hello"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["response"] != "pong" {
		t.Errorf("expected response 'pong', got %q", body["response"])
	}
	if body["model"] != "test-model" {
		t.Errorf("expected model echoed back, got %q", body["model"])
	}

	// Auto-save captured the inbound message.
	e, err := store.Get(context.Background(), "webhook_msg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.Content != "hello" {
		t.Fatalf("expected auto-saved message, got %+v", e)
	}
	if e.Category != model.CategoryConversation {
		t.Errorf("expected conversation category, got %q", e.Category)
	}
}

func TestWebhookAutoSaveDisabled(t *testing.T) {
	srv, store := newTestServer(t)
	srv.AutoSave = false

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"message":"hello"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	e, _ := store.Get(context.Background(), "webhook_msg")
	if e != nil {
		t.Errorf("expected no auto-save, found %+v", e)
	}
}

func TestWebhookBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookMissingMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"other":"field"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookProviderError(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Provider = &stubProvider{err: errors.New("model unavailable")}

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"message":"hello"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "model unavailable") {
		t.Errorf("expected provider error in body, got %s", rec.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/webhook") {
		t.Errorf("expected route listing in body, got %s", rec.Body.String())
	}
}
