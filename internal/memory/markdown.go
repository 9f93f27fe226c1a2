package memory

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/sidekick/internal/model"
)

// MarkdownStore implements Store on plain markdown files: one file per
// entry under <workspaceDir>/memory, yaml frontmatter for the metadata,
// the body is the content. Everything stays readable and editable by
// hand, which is why it is also the fallback backend.
type MarkdownStore struct {
	mu      sync.Mutex
	dir     string
	entropy *rand.Rand
}

// NewMarkdownStore creates a store rooted at <workspaceDir>/memory.
// The directory itself is created lazily on first write.
func NewMarkdownStore(workspaceDir string) *MarkdownStore {
	return &MarkdownStore{
		dir:     filepath.Join(workspaceDir, "memory"),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type frontmatter struct {
	ID        string `yaml:"id"`
	Key       string `yaml:"key"`
	Category  string `yaml:"category"`
	CreatedAt string `yaml:"created_at"`
	UpdatedAt string `yaml:"updated_at"`
}

// Name implements Store.
func (m *MarkdownStore) Name() string { return "markdown" }

// Store implements Store. The fresh id computed up front is discarded
// when the key already exists; the existing file keeps its identity.
func (m *MarkdownStore) Store(ctx context.Context, key, content string, category model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if category == "" {
		category = model.CategoryCore
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	now := time.Now().UTC()
	id := newEntryID(m.entropy)

	entries, err := m.loadAll()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Key == key {
			e.Content = content
			e.Category = category
			e.UpdatedAt = now
			return m.writeEntry(e)
		}
	}

	return m.writeEntry(model.MemoryEntry{
		ID:        id,
		Key:       key,
		Content:   content,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Recall implements Store. Same contract as the sqlite backend:
// candidates ordered by recency, truncated to limit, then scored.
func (m *MarkdownStore) Recall(ctx context.Context, query string, limit int) ([]model.MemoryEntry, error) {
	keywords := strings.Fields(query)
	if len(keywords) == 0 || limit <= 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.loadAll()
	if err != nil {
		return nil, err
	}

	var candidates []model.MemoryEntry
	for _, e := range entries {
		if !matchesAny(&e, keywords) {
			continue
		}
		candidates = append(candidates, e)
		if len(candidates) >= limit {
			break
		}
	}

	scoreAndSort(candidates, query)
	return candidates, nil
}

// Get implements Store.
func (m *MarkdownStore) Get(ctx context.Context, key string) (*model.MemoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.loadAll()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Key == key {
			return &e, nil
		}
	}
	return nil, nil
}

// List implements Store.
func (m *MarkdownStore) List(ctx context.Context, category model.Category) ([]model.MemoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.loadAll()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return entries, nil
	}
	var filtered []model.MemoryEntry
	for _, e := range entries {
		if e.Category == category {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Forget implements Store.
func (m *MarkdownStore) Forget(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.loadAll()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Key == key {
			if err := os.Remove(m.entryPath(e.ID)); err != nil {
				return false, fmt.Errorf("forget %q: %w", key, err)
			}
			return true, nil
		}
	}
	return false, nil
}

// Count implements Store.
func (m *MarkdownStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.loadAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// HealthCheck implements Store. The store is healthy when its directory
// exists or can be created.
func (m *MarkdownStore) HealthCheck(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return os.MkdirAll(m.dir, 0o755) == nil
}

// Close implements Store. Nothing is held open between operations.
func (m *MarkdownStore) Close() error { return nil }

func (m *MarkdownStore) entryPath(id string) string {
	return filepath.Join(m.dir, id+".md")
}

// loadAll reads every entry file, newest updated first. A file that
// fails to parse is an error, not a skip.
func (m *MarkdownStore) loadAll() ([]model.MemoryEntry, error) {
	paths, err := filepath.Glob(filepath.Join(m.dir, "*.md"))
	if err != nil {
		return nil, err
	}

	var entries []model.MemoryEntry
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		e, err := parseEntryFile(p, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

func (m *MarkdownStore) writeEntry(e model.MemoryEntry) error {
	head, err := yaml.Marshal(frontmatter{
		ID:        e.ID,
		Key:       e.Key,
		Category:  string(e.Category),
		CreatedAt: e.CreatedAt.Format(timeLayout),
		UpdatedAt: e.UpdatedAt.Format(timeLayout),
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(e.Content)
	buf.WriteString("\n")

	if err := os.WriteFile(m.entryPath(e.ID), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", e.Key, err)
	}
	return nil
}

func parseEntryFile(path string, data []byte) (model.MemoryEntry, error) {
	var e model.MemoryEntry

	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		return e, fmt.Errorf("parse %s: missing frontmatter", path)
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return e, fmt.Errorf("parse %s: unterminated frontmatter", path)
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return e, fmt.Errorf("parse %s: %w", path, err)
	}

	body := rest[end+len("\n---\n"):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")

	e = model.MemoryEntry{
		ID:       fm.ID,
		Key:      fm.Key,
		Content:  body,
		Category: model.Category(fm.Category),
	}

	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, fm.CreatedAt); err != nil {
		return e, fmt.Errorf("parse %s: bad created_at: %w", path, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, fm.UpdatedAt); err != nil {
		return e, fmt.Errorf("parse %s: bad updated_at: %w", path, err)
	}
	return e, nil
}
