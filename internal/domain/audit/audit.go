// Package audit provides the append-only audit trail model for version
// control actions.
package audit

import "time"

// Action names for audit entries.
const (
	ActionCommit   = "version.commit"
	ActionRollback = "version.rollback"
)

// Entry is one audit record. Entries are append-only; there is no update or
// delete path.
type Entry struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"prompt_id"`
	Branch    string    `json:"branch"`
	Version   int       `json:"version"`
	Action    string    `json:"action"`
	Author    string    `json:"author"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
