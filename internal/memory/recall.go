package memory

import (
	"sort"
	"strings"

	"github.com/rcliao/sidekick/internal/model"
)

// matchesAny reports whether any keyword appears as a substring of the
// entry's content or key, ignoring case. A single hit on either field
// is enough to make the entry a recall candidate.
func matchesAny(e *model.MemoryEntry, keywords []string) bool {
	content := strings.ToLower(e.Content)
	key := strings.ToLower(e.Key)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(content, kw) || strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// scoreAndSort scores each candidate by the fraction of query tokens
// found in its lowercased content, then stable-sorts best first. Ties
// keep the incoming order (most recently updated first), so equal
// scores favor recency. An entry selected only through its key can
// legitimately score zero and land last.
func scoreAndSort(entries []model.MemoryEntry, query string) {
	tokens := strings.Fields(strings.ToLower(query))
	div := len(tokens)
	if div < 1 {
		div = 1
	}
	for i := range entries {
		content := strings.ToLower(entries[i].Content)
		matched := 0
		for _, tok := range tokens {
			if strings.Contains(content, tok) {
				matched++
			}
		}
		score := float64(matched) / float64(div)
		entries[i].Score = &score
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return *entries[i].Score > *entries[j].Score
	})
}
