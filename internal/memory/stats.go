package memory

import (
	"context"
	"os"
	"sort"
)

// Stats holds store statistics for diagnostics.
type Stats struct {
	Backend     string          `json:"backend"`
	Total       int             `json:"total"`
	Categories  []CategoryStats `json:"categories,omitempty"`
	DBPath      string          `json:"db_path,omitempty"`
	DBSizeBytes int64           `json:"db_size_bytes,omitempty"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CollectStats derives statistics from any Store. For the sqlite
// backend it also reports the database file path and size.
func CollectStats(ctx context.Context, s Store) (*Stats, error) {
	entries, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[string(e.Category)]++
	}
	names := make([]string, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	sort.Strings(names)

	st := &Stats{Backend: s.Name(), Total: len(entries)}
	for _, c := range names {
		st.Categories = append(st.Categories, CategoryStats{Category: c, Count: counts[c]})
	}

	if sq, ok := s.(*SQLiteStore); ok {
		st.DBPath = sq.path
		if info, err := os.Stat(sq.path); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}
	return st, nil
}
