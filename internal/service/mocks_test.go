package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/audit"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/domain/subscription"
	"github.com/promptforge/promptforge/internal/domain/version"
	"github.com/promptforge/promptforge/internal/port/messagequeue"
)

// fakeStore is an in-memory database.Store for service tests.
type fakeStore struct {
	mu              sync.Mutex
	prompts         map[string]*prompt.Prompt
	versions        map[string][]*version.Version // promptID/branch -> ordered by number
	subs            map[string][]subscription.Subscription
	audits          []audit.Entry
	getVersionCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		prompts:  make(map[string]*prompt.Prompt),
		versions: make(map[string][]*version.Version),
		subs:     make(map[string][]subscription.Subscription),
	}
}

func (f *fakeStore) addPrompt(id, slug string) {
	f.prompts[id] = &prompt.Prompt{ID: id, Slug: slug, Title: slug, CreatedAt: time.Now()}
}

func (f *fakeStore) CreatePrompt(_ context.Context, p *prompt.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.prompts {
		if existing.Slug == p.Slug {
			return fmt.Errorf("slug taken: %w", domain.ErrConflict)
		}
	}
	p.CreatedAt = time.Now()
	f.prompts[p.ID] = p
	return nil
}

func (f *fakeStore) GetPrompt(_ context.Context, id string) (*prompt.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) GetPromptBySlug(_ context.Context, slug string) (*prompt.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, fmt.Errorf("slug %s: %w", slug, domain.ErrNotFound)
}

func (f *fakeStore) ListPrompts(_ context.Context) ([]prompt.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []prompt.Prompt
	for _, p := range f.prompts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) InsertVersion(_ context.Context, v *version.Version) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.prompts[v.PromptID]; !ok {
		return fmt.Errorf("prompt %s: %w", v.PromptID, domain.ErrNotFound)
	}
	key := v.PromptID + "/" + v.Branch
	for _, existing := range f.versions[key] {
		if existing.Number == v.Number {
			return fmt.Errorf("version %d exists: %w", v.Number, domain.ErrConflict)
		}
	}
	v.CreatedAt = time.Now()
	f.versions[key] = append(f.versions[key], v)
	return nil
}

func (f *fakeStore) GetVersion(_ context.Context, promptID, branch string, number int) (*version.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getVersionCalls++
	for _, v := range f.versions[promptID+"/"+branch] {
		if v.Number == number {
			return v, nil
		}
	}
	return nil, fmt.Errorf("version %d: %w", number, domain.ErrNotFound)
}

func (f *fakeStore) ListVersions(_ context.Context, promptID, branch string, limit int) ([]version.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vs := f.versions[promptID+"/"+branch]
	var out []version.Meta
	for i := len(vs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, vs[i].Meta())
	}
	return out, nil
}

func (f *fakeStore) BranchHead(_ context.Context, promptID, branch string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	head := 0
	for _, v := range f.versions[promptID+"/"+branch] {
		if v.Number > head {
			head = v.Number
		}
	}
	return head, nil
}

func (f *fakeStore) ListBranches(_ context.Context, promptID string) ([]version.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	heads := make(map[string]int)
	for key, vs := range f.versions {
		for _, v := range vs {
			if v.PromptID != promptID {
				continue
			}
			branch := key[len(promptID)+1:]
			if v.Number > heads[branch] {
				heads[branch] = v.Number
			}
		}
	}
	var out []version.Branch
	for name, head := range heads {
		out = append(out, version.Branch{Name: name, Head: head})
	}
	return out, nil
}

func (f *fakeStore) UpsertSubscription(_ context.Context, promptID, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs[promptID] {
		if s.AgentID == agentID {
			f.subs[promptID][i].LastPulledAt = time.Now()
			return nil
		}
	}
	f.subs[promptID] = append(f.subs[promptID], subscription.Subscription{
		PromptID: promptID, AgentID: agentID, SubscribedAt: time.Now(), LastPulledAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) ListSubscribers(_ context.Context, promptID string) ([]subscription.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]subscription.Subscription(nil), f.subs[promptID]...), nil
}

func (f *fakeStore) AppendAudit(_ context.Context, entry *audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.CreatedAt = time.Now()
	f.audits = append(f.audits, *entry)
	return nil
}

// fakeQueue records published messages.
type fakeQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
	failWith  error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{published: make(map[string][][]byte)}
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failWith != nil {
		return q.failWith
	}
	q.published[subject] = append(q.published[subject], data)
	return nil
}

func (q *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

// fakeCache is a map-backed cache.Cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[key]
	return val, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
