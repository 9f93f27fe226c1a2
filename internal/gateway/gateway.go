// Package gateway exposes the webhook front door: a small JSON HTTP
// server that forwards inbound messages to the provider.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rcliao/sidekick/internal/memory"
	"github.com/rcliao/sidekick/internal/model"
	"github.com/rcliao/sidekick/internal/provider"
)

// Server owns one shared memory store and one provider instance.
type Server struct {
	Store       memory.Store
	Provider    provider.Provider
	Model       string
	Temperature float64
	AutoSave    bool
	Version     string
}

// Handler returns the gateway's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	slog.Info("gateway listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        s.Version,
		"memory":         s.Store.Name(),
		"memory_healthy": s.Store.HealthCheck(r.Context()),
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": `invalid JSON, expected {"message": "..."}`,
		})
		return
	}
	if body.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "missing 'message' field",
		})
		return
	}

	if s.AutoSave {
		if err := s.Store.Store(r.Context(), "webhook_msg", body.Message, model.CategoryConversation); err != nil {
			slog.Warn("auto-save failed", "error", err)
		}
	}

	response, err := s.Provider.Chat(r.Context(), body.Message, s.Model, s.Temperature)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("provider error: %v", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": response,
		"model":    s.Model,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":  "not found",
		"routes": []string{"GET /health", "POST /webhook"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
