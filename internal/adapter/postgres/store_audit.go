package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/domain/audit"
)

// AppendAudit writes one audit entry. Append-only; there is no update path.
func (s *Store) AppendAudit(ctx context.Context, entry *audit.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO audit_trail (id, prompt_id, branch, version, action, author, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		entry.ID, entry.PromptID, entry.Branch, entry.Version, entry.Action, entry.Author, entry.Details,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return storageWrap(err, "append audit %s for %s", entry.Action, entry.PromptID)
	}
	return nil
}
