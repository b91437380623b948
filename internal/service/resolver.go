package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/role"
	"github.com/promptforge/promptforge/internal/domain/subscription"
	"github.com/promptforge/promptforge/internal/port/cache"
	"github.com/promptforge/promptforge/internal/port/database"
)

// ResolverService serves role-filtered compositions of committed versions.
// Pinned versions are immutable, so composed results are cached by
// (prompt, branch, version, role) and concurrent misses are collapsed with
// singleflight.
type ResolverService struct {
	store database.Store
	cache cache.Cache
	table *role.Table
	ttl   time.Duration
	group singleflight.Group
}

// NewResolverService creates a resolver over the given role table.
func NewResolverService(store database.Store, c cache.Cache, table *role.Table, ttl time.Duration) *ResolverService {
	return &ResolverService{store: store, cache: c, table: table, ttl: ttl}
}

// Resolve composes the role view of a version. number 0 selects the branch
// head; the head is resolved to a concrete number before the cache lookup so
// only immutable results are ever cached.
func (s *ResolverService) Resolve(ctx context.Context, promptID, branch string, number int, roleName string) (*role.ComposedPrompt, error) {
	branch = branchOrDefault(branch)

	// Reject unknown roles before any storage round-trip.
	if _, ok := s.table.Lookup(roleName); !ok {
		return nil, fmt.Errorf("role %q: %w", roleName, domain.ErrRolePolicyUnknown)
	}

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

	key := fmt.Sprintf("resolve:%s:%s:%d:%s", promptID, branch, number, roleName)

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var composed role.ComposedPrompt
		if err := json.Unmarshal(data, &composed); err == nil {
			return &composed, nil
		}
		slog.Warn("resolver: corrupt cache entry", "key", key)
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		v, err := s.store.GetVersion(ctx, promptID, branch, number)
		if err != nil {
			return nil, err
		}
		composed, err := s.table.Resolve(v, roleName)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(composed); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.Warn("resolver: cache set failed", "key", key, "error", err)
			}
		}
		return composed, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*role.ComposedPrompt), nil
}

// TrackPull records that an agent pulled a prompt, creating or refreshing
// its subscription. Best-effort: a pull never fails because bookkeeping did.
func (s *ResolverService) TrackPull(ctx context.Context, promptID, agentID string) {
	if agentID == "" {
		return
	}
	if err := s.store.UpsertSubscription(ctx, promptID, agentID); err != nil {
		slog.Warn("resolver: subscription upsert failed", "prompt_id", promptID, "agent_id", agentID, "error", err)
	}
}

// Subscribers lists the agents following a prompt.
func (s *ResolverService) Subscribers(ctx context.Context, promptID string) ([]subscription.Subscription, error) {
	return s.store.ListSubscribers(ctx, promptID)
}
