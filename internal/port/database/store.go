// Package database defines the row-store port (interface).
//
// Implementations guarantee single-row atomicity only; multi-row
// transactions are not part of the contract. The version-control service is
// written so that the version-row insert is the commit point and everything
// else converges around it.
package database

import (
	"context"

	"github.com/promptforge/promptforge/internal/domain/audit"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/domain/subscription"
	"github.com/promptforge/promptforge/internal/domain/version"
)

// Store is the port interface for durable storage.
type Store interface {
	// Prompts (registry)
	CreatePrompt(ctx context.Context, p *prompt.Prompt) error
	GetPrompt(ctx context.Context, id string) (*prompt.Prompt, error)
	GetPromptBySlug(ctx context.Context, slug string) (*prompt.Prompt, error)
	ListPrompts(ctx context.Context) ([]prompt.Prompt, error)

	// Versions (append-only). InsertVersion returns domain.ErrConflict when
	// another commit already claimed v.Number on the same branch, and
	// advances the branch head pointer on success.
	InsertVersion(ctx context.Context, v *version.Version) error
	GetVersion(ctx context.Context, promptID, branch string, number int) (*version.Version, error)
	ListVersions(ctx context.Context, promptID, branch string, limit int) ([]version.Meta, error)
	BranchHead(ctx context.Context, promptID, branch string) (int, error)
	ListBranches(ctx context.Context, promptID string) ([]version.Branch, error)

	// Subscriptions
	UpsertSubscription(ctx context.Context, promptID, agentID string) error
	ListSubscribers(ctx context.Context, promptID string) ([]subscription.Subscription, error)

	// Audit (append-only, best-effort from callers)
	AppendAudit(ctx context.Context, entry *audit.Entry) error
}
