package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/domain/audit"
	"github.com/promptforge/promptforge/internal/domain/version"
	"github.com/promptforge/promptforge/internal/port/messagequeue"
	"github.com/promptforge/promptforge/internal/resilience"
)

func newTestNotifier(store *fakeStore, queue *fakeQueue) *NotifierService {
	return NewNotifierService(store, queue, resilience.NewBreaker(5, time.Second))
}

func TestCommitNotifiesSubscribers(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	queue := newFakeQueue()
	ctx := context.Background()

	if err := store.UpsertSubscription(ctx, "p1", "agent-7"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSubscription(ctx, "p1", "agent-9"); err != nil {
		t.Fatal(err)
	}

	vcs := NewVersionControlService(store, newTestNotifier(store, queue), config.History{MaxLimit: 200, DefaultLimit: 50})
	v, err := vcs.Commit(ctx, "p1", version.CommitRequest{
		Content:  testContent("identity", "text"),
		Message:  "tighten boundaries",
		Author:   "alice",
		Priority: "high",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(queue.published[messagequeue.SubjectPromptCommitted]) != 1 {
		t.Fatal("expected one broadcast event")
	}
	for _, agent := range []string{"agent-7", "agent-9"} {
		subject := "forge.agent." + agent + ".prompt-updated"
		msgs := queue.published[subject]
		if len(msgs) != 1 {
			t.Fatalf("expected one notification on %s, got %d", subject, len(msgs))
		}
		var event UpdateEvent
		if err := json.Unmarshal(msgs[0], &event); err != nil {
			t.Fatal(err)
		}
		if event.Event != messagequeue.EventPromptUpdated {
			t.Fatalf("unexpected event type: %s", event.Event)
		}
		if event.Slug != "backend-dev" || event.OldVersion != 0 || event.NewVersion != v.Number {
			t.Fatalf("unexpected event payload: %+v", event)
		}
		if event.ChangeNote != "tighten boundaries" || event.Priority != "high" {
			t.Fatalf("unexpected event payload: %+v", event)
		}
	}

	if len(store.audits) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(store.audits))
	}
	if store.audits[0].Action != audit.ActionCommit || store.audits[0].Version != v.Number {
		t.Fatalf("unexpected audit entry: %+v", store.audits[0])
	}
}

func TestRollbackAuditsAsRollback(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	queue := newFakeQueue()
	vcs := NewVersionControlService(store, newTestNotifier(store, queue), config.History{MaxLimit: 200, DefaultLimit: 50})
	ctx := context.Background()

	if _, err := vcs.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "one"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := vcs.Commit(ctx, "p1", version.CommitRequest{
		Content: testContent("identity", "two"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := vcs.Rollback(ctx, "p1", version.RollbackRequest{Version: 1}); err != nil {
		t.Fatal(err)
	}

	last := store.audits[len(store.audits)-1]
	if last.Action != audit.ActionRollback {
		t.Fatalf("expected rollback audit action, got %s", last.Action)
	}
}

func TestQueueFailureDoesNotFailCommit(t *testing.T) {
	store := newFakeStore()
	store.addPrompt("p1", "backend-dev")
	queue := newFakeQueue()
	queue.failWith = errors.New("broker down")

	vcs := NewVersionControlService(store, newTestNotifier(store, queue), config.History{MaxLimit: 200, DefaultLimit: 50})
	v, err := vcs.Commit(context.Background(), "p1", version.CommitRequest{
		Content: testContent("identity", "text"),
	})
	if err != nil {
		t.Fatalf("commit must succeed despite queue failure: %v", err)
	}
	if v.Number != 1 {
		t.Fatalf("unexpected version: %d", v.Number)
	}
	// The audit trail is independent of the queue.
	if len(store.audits) != 1 {
		t.Fatalf("expected audit entry, got %d", len(store.audits))
	}
}
