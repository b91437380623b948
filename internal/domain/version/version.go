// Package version provides the immutable commit model for prompt histories.
package version

import (
	"time"

	"github.com/promptforge/promptforge/internal/domain/prompt"
)

// DefaultBranch is assumed whenever a request does not name a branch.
const DefaultBranch = "main"

// Version is one immutable snapshot in a (prompt, branch) history. Numbers
// per branch are gapless and strictly increasing from 1; rows are never
// mutated or deleted after creation.
type Version struct {
	ID            string         `json:"id"`
	PromptID      string         `json:"prompt_id"`
	Branch        string         `json:"branch"`
	Number        int            `json:"version"`
	Content       prompt.Content `json:"content"`
	ContentHash   string         `json:"content_hash"`
	Message       string         `json:"message"`
	Author        string         `json:"author"`
	ParentVersion *int           `json:"parent_version,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Meta is the metadata view of a Version used by history listings, which
// never load full content.
type Meta struct {
	ID            string    `json:"id"`
	PromptID      string    `json:"prompt_id"`
	Branch        string    `json:"branch"`
	Number        int       `json:"version"`
	ContentHash   string    `json:"content_hash"`
	Message       string    `json:"message"`
	Author        string    `json:"author"`
	ParentVersion *int      `json:"parent_version,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Meta returns the metadata view of v.
func (v *Version) Meta() Meta {
	return Meta{
		ID:            v.ID,
		PromptID:      v.PromptID,
		Branch:        v.Branch,
		Number:        v.Number,
		ContentHash:   v.ContentHash,
		Message:       v.Message,
		Author:        v.Author,
		ParentVersion: v.ParentVersion,
		CreatedAt:     v.CreatedAt,
	}
}

// Branch is a named history line for one prompt, created implicitly on the
// first commit to its name. Head is the highest committed version number.
type Branch struct {
	Name      string    `json:"name"`
	Head      int       `json:"head"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommitRequest is the payload for committing a new version.
type CommitRequest struct {
	Branch   string         `json:"branch"`
	Content  prompt.Content `json:"content"`
	Message  string         `json:"message"`
	Author   string         `json:"author"`
	Priority string         `json:"priority"`
}

// RollbackRequest is the payload for rolling back to a prior version.
type RollbackRequest struct {
	Version int    `json:"version"`
	Branch  string `json:"branch"`
	Author  string `json:"author"`
}
