// Package model defines the value types shared by memory backends and
// channels.
package model

import "time"

// Category classifies a memory entry. Three well-known categories
// exist; any other string is a custom category. Because the type is a
// plain string, the mapping between stored text and category is total
// and lossless in both directions.
type Category string

const (
	CategoryCore         Category = "core"
	CategoryDaily        Category = "daily"
	CategoryConversation Category = "conversation"
)

// MemoryEntry is one remembered fact, addressed by its natural key.
// The id is assigned once at first creation and survives updates.
type MemoryEntry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SessionID string    `json:"session_id,omitempty"`

	// Score is populated only on recall results and is meaningless
	// everywhere else.
	Score *float64 `json:"score,omitempty"`
}
