package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/diff"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/domain/version"
)

func testContent(pairs ...string) prompt.Content {
	var c prompt.Content
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Set(pairs[i], pairs[i+1])
	}
	return c
}

func newTestVCS(store *fakeStore) *VersionControlService {
	return NewVersionControlService(store, nil, config.History{MaxLimit: 200, DefaultLimit: 50})
}

func TestCommitAssignsSequentialNumbers(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	v1, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "You are a backend developer."),
		Message: "initial",
		Author:  "alice",
	})
	if err != nil {
		t.Fatal(err)
	}
	if v1.Number != 1 {
		t.Fatalf("expected version 1, got %d", v1.Number)
	}
	if v1.ParentVersion != nil {
		t.Fatalf("first commit should have no parent, got %d", *v1.ParentVersion)
	}
	if v1.Branch != version.DefaultBranch {
		t.Fatalf("expected default branch, got %s", v1.Branch)
	}
	if !strings.HasPrefix(v1.ContentHash, "sha256:") {
		t.Fatalf("unexpected hash format: %s", v1.ContentHash)
	}

	v2, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "You are a senior backend developer."),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v2.Number != 2 {
		t.Fatalf("expected version 2, got %d", v2.Number)
	}
	if v2.ParentVersion == nil || *v2.ParentVersion != 1 {
		t.Fatal("second commit should point at version 1")
	}
}

func TestCommitCanonicalizesLineEndings(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)

	v, err := svc.Commit(context.Background(), "p1", version.CommitRequest{
		Content: testContent("identity", "line one\r\nline two\rline three"),
	})
	if err != nil {
		t.Fatal(err)
	}
	text, _ := v.Content.Get("identity")
	if text != "line one\nline two\nline three" {
		t.Fatalf("expected LF-normalized text, got %q", text)
	}
}

func TestCommitRejectsInvalidContent(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	_, err := svc.Commit(ctx, "p1", version.CommitRequest{Content: prompt.Content{}})
	if !errors.Is(err, domain.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for empty content, got %v", err)
	}

	_, err = svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("Bad Key!", "text"),
	})
	if !errors.Is(err, domain.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for bad key, got %v", err)
	}
}

func TestCommitUnknownPrompt(t *testing.T) {
	svc := newTestVCS(newFakeStore())
	_, err := svc.Commit(context.Background(), "missing", version.CommitRequest{
		Content: testContent("identity", "text"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentCommitsGetDistinctNumbers(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Commit(ctx, "p1", version.CommitRequest{
				Content: testContent("identity", "text"),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("commit %d failed: %v", i, err)
		}
	}

	head, err := svc.Head(ctx, "p1", "")
	if err != nil {
		t.Fatal(err)
	}
	if head != n {
		t.Fatalf("expected head %d after %d commits, got %d", n, n, head)
	}
}

func TestBranchesAreIndependent(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
			Content: testContent("identity", "main text"),
		}); err != nil {
			t.Fatal(err)
		}
	}
	v, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Branch:  "experiment",
		Content: testContent("identity", "experimental text"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Number != 1 {
		t.Fatalf("first commit on a new branch should be version 1, got %d", v.Number)
	}

	branches, err := svc.Branches(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
}

func TestRollbackCommitsCopyOfTarget(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "original"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "changed"),
	}); err != nil {
		t.Fatal(err)
	}

	v3, err := svc.Rollback(ctx, "p1", version.RollbackRequest{Version: 1, Author: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if v3.Number != 3 {
		t.Fatalf("rollback should append version 3, got %d", v3.Number)
	}
	text, _ := v3.Content.Get("identity")
	if text != "original" {
		t.Fatalf("rollback content should match version 1, got %q", text)
	}
	if v3.Message != "Rollback to version 1" {
		t.Fatalf("unexpected rollback message: %q", v3.Message)
	}

	// History is append-only: version 2 is still there.
	if _, err := svc.GetVersion(ctx, "p1", "", 2); err != nil {
		t.Fatalf("version 2 should survive rollback: %v", err)
	}
}

func TestRollbackValidatesTarget(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	_, err := svc.Rollback(ctx, "p1", version.RollbackRequest{Version: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for version 0, got %v", err)
	}

	_, err = svc.Rollback(ctx, "p1", version.RollbackRequest{Version: 7})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}
}

func TestGetVersionHeadSelection(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	_, err := svc.GetVersion(ctx, "p1", "", 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty branch, got %v", err)
	}

	for _, text := range []string{"one", "two"} {
		if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
			Content: testContent("identity", text),
		}); err != nil {
			t.Fatal(err)
		}
	}

	head, err := svc.GetVersion(ctx, "p1", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if head.Number != 2 {
		t.Fatalf("expected head version 2, got %d", head.Number)
	}
}

func TestHistoryLimits(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := NewVersionControlService(store, nil, config.History{MaxLimit: 5, DefaultLimit: 3})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
			Content: testContent("identity", "text"),
		}); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := svc.History(ctx, "p1", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Fatalf("expected default limit 3, got %d entries", len(metas))
	}
	if metas[0].Number != 10 {
		t.Fatalf("history should be newest first, got %d", metas[0].Number)
	}

	metas, err = svc.History(ctx, "p1", "", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 5 {
		t.Fatalf("expected clamp to 5, got %d entries", len(metas))
	}

	if _, err := svc.History(ctx, "p1", "", -1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for negative limit, got %v", err)
	}
}

func TestDiffBetweenVersions(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	svc := newTestVCS(store)
	ctx := context.Background()

	if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "dev", "voice", "terse"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "senior dev", "boundaries", "no prod access"),
	}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Diff(ctx, "p1", "", 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.Modified != 1 || result.Summary.Removed != 1 || result.Summary.Added != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}

	kinds := map[string]diff.Kind{}
	for _, e := range result.Changes {
		kinds[e.Key] = e.Kind
	}
	if kinds["identity"] != diff.KindModified || kinds["voice"] != diff.KindRemoved || kinds["boundaries"] != diff.KindAdded {
		t.Fatalf("unexpected change kinds: %v", kinds)
	}
}
