package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/domain/version"
)

// Store implements the database.Store port backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store using the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreatePrompt registers a new prompt. Returns domain.ErrConflict when the
// slug is already taken.
func (s *Store) CreatePrompt(ctx context.Context, p *prompt.Prompt) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO prompts (id, slug, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		p.ID, p.Slug, p.Title, p.Description,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return fmt.Errorf("prompt slug %q already exists: %w", p.Slug, domain.ErrConflict)
		}
		return storageWrap(err, "create prompt %q", p.Slug)
	}
	return nil
}

// GetPrompt fetches a prompt by ID.
func (s *Store) GetPrompt(ctx context.Context, id string) (*prompt.Prompt, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, slug, title, description, created_at
		FROM prompts
		WHERE id = $1`,
		id,
	)
	p, err := scanPrompt(row)
	if err != nil {
		return nil, notFoundWrap(err, "get prompt %s", id)
	}
	return p, nil
}

// GetPromptBySlug fetches a prompt by its slug.
func (s *Store) GetPromptBySlug(ctx context.Context, slug string) (*prompt.Prompt, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, slug, title, description, created_at
		FROM prompts
		WHERE slug = $1`,
		slug,
	)
	p, err := scanPrompt(row)
	if err != nil {
		return nil, notFoundWrap(err, "get prompt by slug %q", slug)
	}
	return p, nil
}

// ListPrompts returns all registered prompts, newest first.
func (s *Store) ListPrompts(ctx context.Context) ([]prompt.Prompt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, title, description, created_at
		FROM prompts
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []prompt.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

// InsertVersion appends a version row and advances the branch head pointer.
// The version row insert is the commit point: once it is durable, the commit
// has happened. A duplicate (prompt, branch, version) means another writer
// won the race and maps to domain.ErrConflict.
func (s *Store) InsertVersion(ctx context.Context, v *version.Version) error {
	content, err := json.Marshal(v.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO prompt_versions (id, prompt_id, branch, version, content, content_hash, message, author, parent_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		v.ID, v.PromptID, v.Branch, v.Number, content, v.ContentHash, v.Message, v.Author, v.ParentVersion,
	).Scan(&v.CreatedAt)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return fmt.Errorf("version %d already exists on %s/%s: %w",
				v.Number, v.PromptID, v.Branch, domain.ErrConflict)
		}
		if isPgCode(err, pgForeignKeyViolation) {
			return fmt.Errorf("prompt %s: %w", v.PromptID, domain.ErrNotFound)
		}
		return storageWrap(err, "insert version %d on %s/%s", v.Number, v.PromptID, v.Branch)
	}

	// The head pointer is a convergent read optimization, not the source of
	// truth. GREATEST keeps concurrent advances monotonic, and a failure here
	// is not a failed commit: BranchHead computes from the version rows.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO prompt_branches (prompt_id, branch, head)
		VALUES ($1, $2, $3)
		ON CONFLICT (prompt_id, branch)
		DO UPDATE SET head = GREATEST(prompt_branches.head, EXCLUDED.head), updated_at = now()`,
		v.PromptID, v.Branch, v.Number,
	)
	if err != nil {
		slog.Warn("failed to advance branch head pointer",
			"prompt_id", v.PromptID, "branch", v.Branch, "version", v.Number, "error", err)
	}

	return nil
}

// GetVersion fetches one full version, content included.
func (s *Store) GetVersion(ctx context.Context, promptID, branch string, number int) (*version.Version, error) {
	var (
		v       version.Version
		content []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, prompt_id, branch, version, content, content_hash, message, author, parent_version, created_at
		FROM prompt_versions
		WHERE prompt_id = $1 AND branch = $2 AND version = $3`,
		promptID, branch, number,
	).Scan(&v.ID, &v.PromptID, &v.Branch, &v.Number, &content, &v.ContentHash,
		&v.Message, &v.Author, &v.ParentVersion, &v.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get version %d on %s/%s", number, promptID, branch)
	}

	if err := json.Unmarshal(content, &v.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content of version %s: %w", v.ID, err)
	}
	return &v, nil
}

// ListVersions returns version metadata for a branch, newest first. Content
// is never loaded by listings.
func (s *Store) ListVersions(ctx context.Context, promptID, branch string, limit int) ([]version.Meta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, prompt_id, branch, version, content_hash, message, author, parent_version, created_at
		FROM prompt_versions
		WHERE prompt_id = $1 AND branch = $2
		ORDER BY version DESC
		LIMIT $3`,
		promptID, branch, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions on %s/%s: %w", promptID, branch, err)
	}
	defer rows.Close()

	var metas []version.Meta
	for rows.Next() {
		var m version.Meta
		if err := rows.Scan(&m.ID, &m.PromptID, &m.Branch, &m.Number, &m.ContentHash,
			&m.Message, &m.Author, &m.ParentVersion, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version meta: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// BranchHead returns the highest committed version number on a branch, or 0
// when the branch has no versions yet. Computed from the version rows so
// it is correct even if a head pointer update was lost.
func (s *Store) BranchHead(ctx context.Context, promptID, branch string) (int, error) {
	var head int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM prompt_versions
		WHERE prompt_id = $1 AND branch = $2`,
		promptID, branch,
	).Scan(&head)
	if err != nil {
		return 0, fmt.Errorf("branch head of %s/%s: %w", promptID, branch, err)
	}
	return head, nil
}

// ListBranches returns all branches of a prompt with their head pointers.
func (s *Store) ListBranches(ctx context.Context, promptID string) ([]version.Branch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT branch, head, updated_at
		FROM prompt_branches
		WHERE prompt_id = $1
		ORDER BY branch`,
		promptID,
	)
	if err != nil {
		return nil, fmt.Errorf("list branches of %s: %w", promptID, err)
	}
	defer rows.Close()

	var branches []version.Branch
	for rows.Next() {
		var b version.Branch
		if err := rows.Scan(&b.Name, &b.Head, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func scanPrompt(row scannable) (*prompt.Prompt, error) {
	var p prompt.Prompt
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
