// Package prompt provides the prompt document model: identity, the ordered
// section map, and content canonicalization/hashing.
package prompt

import "time"

// Prompt is a registered prompt document. Identity fields are immutable
// after creation; version history hangs off (prompt, branch) pairs.
type Prompt struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest is the payload for registering a new prompt.
type CreateRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
