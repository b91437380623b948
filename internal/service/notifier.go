package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/promptforge/promptforge/internal/domain/audit"
	"github.com/promptforge/promptforge/internal/domain/version"
	"github.com/promptforge/promptforge/internal/port/database"
	"github.com/promptforge/promptforge/internal/port/messagequeue"
	"github.com/promptforge/promptforge/internal/resilience"
)

// UpdateEvent is the payload delivered to subscribed agents after a commit.
type UpdateEvent struct {
	Event      string `json:"event"`
	Slug       string `json:"slug"`
	PromptID   string `json:"prompt_id"`
	Branch     string `json:"branch"`
	OldVersion int    `json:"old_version"`
	NewVersion int    `json:"new_version"`
	ChangeNote string `json:"change_note"`
	Priority   string `json:"priority"`
}

// NotifierService fans out after a durable commit: a broadcast event, one
// notification per subscribed agent, and an audit entry. Every failure here
// is logged and swallowed; the commit already happened and callers must see
// it succeed.
type NotifierService struct {
	store   database.Store
	queue   messagequeue.Queue
	breaker *resilience.Breaker
}

// NewNotifierService creates a notifier. The breaker guards queue publishes
// so a dead broker degrades to logged drops instead of per-commit timeouts.
func NewNotifierService(store database.Store, queue messagequeue.Queue, breaker *resilience.Breaker) *NotifierService {
	return &NotifierService{store: store, queue: queue, breaker: breaker}
}

// CommitHappened publishes events and appends the audit entry for a commit
// that is already durable.
func (n *NotifierService) CommitHappened(ctx context.Context, v *version.Version, oldHead int, priority, action string) {
	n.appendAudit(ctx, v, action)

	event := UpdateEvent{
		Event:      messagequeue.EventPromptUpdated,
		PromptID:   v.PromptID,
		Branch:     v.Branch,
		OldVersion: oldHead,
		NewVersion: v.Number,
		ChangeNote: v.Message,
		Priority:   priority,
	}
	if p, err := n.store.GetPrompt(ctx, v.PromptID); err == nil {
		event.Slug = p.Slug
	} else {
		slog.Warn("notify: prompt lookup failed", "prompt_id", v.PromptID, "error", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("notify: marshal event", "prompt_id", v.PromptID, "error", err)
		return
	}

	n.publish(ctx, messagequeue.SubjectPromptCommitted, data)

	subs, err := n.store.ListSubscribers(ctx, v.PromptID)
	if err != nil {
		slog.Error("notify: list subscribers", "prompt_id", v.PromptID, "error", err)
		return
	}
	for _, sub := range subs {
		subject := fmt.Sprintf(messagequeue.SubjectPromptUpdated, sub.AgentID)
		n.publish(ctx, subject, data)
	}
}

func (n *NotifierService) publish(ctx context.Context, subject string, data []byte) {
	err := n.breaker.Execute(func() error {
		return n.queue.Publish(ctx, subject, data)
	})
	if err != nil {
		slog.Error("notify: publish failed", "subject", subject, "error", err)
	}
}

func (n *NotifierService) appendAudit(ctx context.Context, v *version.Version, action string) {
	entry := &audit.Entry{
		PromptID: v.PromptID,
		Branch:   v.Branch,
		Version:  v.Number,
		Action:   action,
		Author:   v.Author,
		Details:  v.Message,
	}
	if err := n.store.AppendAudit(ctx, entry); err != nil {
		slog.Error("notify: audit append failed", "prompt_id", v.PromptID, "action", action, "error", err)
	}
}
