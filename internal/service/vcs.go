package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/audit"
	"github.com/promptforge/promptforge/internal/domain/diff"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/domain/version"
	"github.com/promptforge/promptforge/internal/port/database"
)

// VersionControlService implements the commit, history, diff, and rollback
// operations over the append-only version store.
//
// Commits on the same (prompt, branch) are serialized in-process with a
// per-branch mutex; the store's uniqueness constraint on the version number
// is the cross-process backstop and surfaces as domain.ErrConflict.
type VersionControlService struct {
	store    database.Store
	notifier *NotifierService
	history  config.History
	locks    sync.Map // "promptID/branch" -> *sync.Mutex
}

// NewVersionControlService creates a version control service. notifier may
// be nil when post-commit fan-out is not wanted (tests, offline tooling).
func NewVersionControlService(store database.Store, notifier *NotifierService, history config.History) *VersionControlService {
	return &VersionControlService{store: store, notifier: notifier, history: history}
}

// Commit appends a new version to a branch. Content is canonicalized and
// hashed first; the branch is created implicitly on its first commit. The
// returned version carries the assigned number and parent pointer.
func (s *VersionControlService) Commit(ctx context.Context, promptID string, req version.CommitRequest) (*version.Version, error) {
	content, err := prompt.Canonicalize(req.Content)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, promptID, branchOrDefault(req.Branch), content, req.Message, req.Author, req.Priority, audit.ActionCommit)
}

// Rollback commits a copy of an earlier version's content as a new head.
// History is never rewritten; the rollback is itself a commit.
func (s *VersionControlService) Rollback(ctx context.Context, promptID string, req version.RollbackRequest) (*version.Version, error) {
	if req.Version < 1 {
		return nil, fmt.Errorf("rollback target %d: %w", req.Version, domain.ErrValidation)
	}
	branch := branchOrDefault(req.Branch)

	target, err := s.store.GetVersion(ctx, promptID, branch, req.Version)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Rollback to version %d", req.Version)
	return s.commit(ctx, promptID, branch, target.Content, message, req.Author, "", audit.ActionRollback)
}

func (s *VersionControlService) commit(ctx context.Context, promptID, branch string, content prompt.Content, message, author, priority, action string) (*version.Version, error) {
	mu := s.branchLock(promptID, branch)
	mu.Lock()
	defer mu.Unlock()

	head, err := s.store.BranchHead(ctx, promptID, branch)
	if err != nil {
		return nil, err
	}

	v := &version.Version{
		ID:          uuid.NewString(),
		PromptID:    promptID,
		Branch:      branch,
		Number:      head + 1,
		Content:     content,
		ContentHash: prompt.HashContent(content),
		Message:     message,
		Author:      author,
	}
	if head > 0 {
		parent := head
		v.ParentVersion = &parent
	}

	if err := s.store.InsertVersion(ctx, v); err != nil {
		return nil, err
	}

	// The commit is durable at this point. Fan-out is best-effort and must
	// never turn a successful commit into an error.
	if s.notifier != nil {
		s.notifier.CommitHappened(ctx, v, head, priority, action)
	}

	return v, nil
}

// GetVersion fetches one version with full content. number 0 means the
// current branch head.
func (s *VersionControlService) GetVersion(ctx context.Context, promptID, branch string, number int) (*version.Version, error) {
	branch = branchOrDefault(branch)
	if number < 0 {
		return nil, fmt.Errorf("version %d: %w", number, domain.ErrValidation)
	}
	if number == 0 {
		head, err := s.store.BranchHead(ctx, promptID, branch)
		if err != nil {
			return nil, err
		}
		if head == 0 {
			return nil, fmt.Errorf("branch %s/%s has no versions: %w", promptID, branch, domain.ErrNotFound)
		}
		number = head
	}
	return s.store.GetVersion(ctx, promptID, branch, number)
}

// History lists version metadata newest first. limit 0 means the configured
// default; explicit limits must be positive and are clamped at the ceiling.
func (s *VersionControlService) History(ctx context.Context, promptID, branch string, limit int) ([]version.Meta, error) {
	branch = branchOrDefault(branch)
	switch {
	case limit == 0:
		limit = s.history.DefaultLimit
	case limit < 0:
		return nil, fmt.Errorf("history limit %d must be positive: %w", limit, domain.ErrValidation)
	case limit > s.history.MaxLimit:
		limit = s.history.MaxLimit
	}
	return s.store.ListVersions(ctx, promptID, branch, limit)
}

// Diff compares two versions of a prompt at section granularity. Version 0
// on either side selects the branch head.
func (s *VersionControlService) Diff(ctx context.Context, promptID, branch string, from, to int) (*diff.Result, error) {
	branch = branchOrDefault(branch)

	a, err := s.GetVersion(ctx, promptID, branch, from)
	if err != nil {
		return nil, fmt.Errorf("diff base: %w", err)
	}
	b, err := s.GetVersion(ctx, promptID, branch, to)
	if err != nil {
		return nil, fmt.Errorf("diff target: %w", err)
	}

	result := diff.Compare(a.Content, b.Content)
	return &result, nil
}

// Branches lists all branches of a prompt with their heads.
func (s *VersionControlService) Branches(ctx context.Context, promptID string) ([]version.Branch, error) {
	return s.store.ListBranches(ctx, promptID)
}

// Head returns the current head number of a branch. A branch with no
// versions does not exist and yields domain.ErrNotFound.
func (s *VersionControlService) Head(ctx context.Context, promptID, branch string) (int, error) {
	branch = branchOrDefault(branch)
	head, err := s.store.BranchHead(ctx, promptID, branch)
	if err != nil {
		return 0, err
	}
	if head == 0 {
		return 0, fmt.Errorf("branch %s/%s has no versions: %w", promptID, branch, domain.ErrNotFound)
	}
	return head, nil
}

func (s *VersionControlService) branchLock(promptID, branch string) *sync.Mutex {
	key := promptID + "/" + branch
	if mu, ok := s.locks.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func branchOrDefault(branch string) string {
	if branch == "" {
		return version.DefaultBranch
	}
	return branch
}
