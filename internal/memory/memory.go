// Package memory provides the persistent memory interface and its
// sqlite and markdown backends.
package memory

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/sidekick/internal/model"
)

// timeLayout is RFC3339 with fixed-width nanoseconds. Timestamps are
// stored as TEXT and ordered lexicographically, so the width must not
// vary between writes.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the storage contract shared by all memory backends.
type Store interface {
	// Name identifies the active backend for diagnostics.
	Name() string

	// Store upserts an entry by natural key. A second call with the
	// same key updates content/category/updated_at in place and keeps
	// the original id; no two live entries ever share a key.
	Store(ctx context.Context, key, content string, category model.Category) error

	// Recall returns entries relevant to the query, best match first.
	// limit bounds the result count, not the candidate set; a
	// non-positive limit yields no results.
	Recall(ctx context.Context, query string, limit int) ([]model.MemoryEntry, error)

	// Get returns the entry for key, or nil (not an error) if absent.
	Get(ctx context.Context, key string) (*model.MemoryEntry, error)

	// List returns all entries ordered by updated_at descending. A
	// non-empty category restricts the result to that category.
	List(ctx context.Context, category model.Category) ([]model.MemoryEntry, error)

	// Forget deletes by key and reports whether an entry was removed.
	Forget(ctx context.Context, key string) (bool, error)

	// Count returns the number of live entries.
	Count(ctx context.Context) (int, error)

	// HealthCheck reports backend liveness. It never fails; any
	// internal error collapses to false.
	HealthCheck(ctx context.Context) bool

	// Close releases the backend's resources.
	Close() error
}

// New selects a backend by name. Unknown names fall back to the
// markdown backend with a warning rather than an error.
func New(backend, workspaceDir string) (Store, error) {
	switch backend {
	case "sqlite":
		return NewSQLiteStore(workspaceDir)
	case "markdown", "none":
		return NewMarkdownStore(workspaceDir), nil
	default:
		slog.Warn("unknown memory backend, falling back to markdown", "backend", backend)
		return NewMarkdownStore(workspaceDir), nil
	}
}

func newEntryID(entropy *rand.Rand) string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
