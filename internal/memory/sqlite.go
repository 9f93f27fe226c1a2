package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/sidekick/internal/model"
)

// SQLiteStore implements Store on a single-file sqlite database.
//
// One connection, one exclusive lock: every operation, reads included,
// holds mu for its whole duration. Coarse-grained on purpose — it
// trades throughput for simplicity and makes the insert-or-update
// upsert atomic with respect to every other caller.
type SQLiteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	path    string
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates <workspaceDir>/memory/brain.db.
func NewSQLiteStore(workspaceDir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(workspaceDir, "memory", "brain.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		key         TEXT NOT NULL UNIQUE,
		content     TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT 'core',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
	CREATE INDEX IF NOT EXISTS idx_memories_key ON memories(key);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name implements Store.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Store implements Store. The upsert is a single statement, so no
// reader can ever observe a half-written entry.
func (s *SQLiteStore) Store(ctx context.Context, key, content string, category model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" {
		category = model.CategoryCore
	}
	now := time.Now().UTC().Format(timeLayout)
	// A fresh id is computed for every write; on key conflict the
	// update keeps the original id and this one is discarded.
	id := newEntryID(s.entropy)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, key, content, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			content = excluded.content,
			category = excluded.category,
			updated_at = excluded.updated_at`,
		id, key, content, string(category), now, now)
	if err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

// Recall implements Store. Candidate selection happens in SQL (any
// keyword as a substring of content or key), bounded by recency before
// scoring: when more than limit recent entries match, a stale but
// relevant entry is dropped.
func (s *SQLiteStore) Recall(ctx context.Context, query string, limit int) ([]model.MemoryEntry, error) {
	keywords := strings.Fields(query)
	if len(keywords) == 0 || limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conditions := make([]string, len(keywords))
	args := make([]interface{}, 0, len(keywords)*2+1)
	for i, kw := range keywords {
		conditions[i] = "(content LIKE ? OR key LIKE ?)"
		pat := "%" + kw + "%"
		args = append(args, pat, pat)
	}
	args = append(args, limit)

	q := `SELECT id, key, content, category, created_at, updated_at FROM memories
	      WHERE ` + strings.Join(conditions, " OR ") + `
	      ORDER BY updated_at DESC
	      LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	scoreAndSort(entries, query)
	return entries, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, key, content, category, created_at, updated_at FROM memories WHERE key = ?`,
		key)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return &e, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, category model.Category) ([]model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := `SELECT id, key, content, category, created_at, updated_at FROM memories`
	var args []interface{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, string(category))
	}
	q += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Forget implements Store.
func (s *SQLiteStore) Forget(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("forget %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// HealthCheck implements Store.
func (s *SQLiteStore) HealthCheck(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one) == nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (model.MemoryEntry, error) {
	var e model.MemoryEntry
	var category, createdAt, updatedAt string

	if err := row.Scan(&e.ID, &e.Key, &e.Content, &category, &createdAt, &updatedAt); err != nil {
		return e, err
	}
	e.Category = model.Category(category)

	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return e, fmt.Errorf("entry %q: bad created_at: %w", e.Key, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return e, fmt.Errorf("entry %q: bad updated_at: %w", e.Key, err)
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]model.MemoryEntry, error) {
	var entries []model.MemoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
