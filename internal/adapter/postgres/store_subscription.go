package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/domain/subscription"
)

// UpsertSubscription records that an agent follows a prompt, refreshing
// last_pulled_at on every pull.
func (s *Store) UpsertSubscription(ctx context.Context, promptID, agentID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO prompt_subscriptions (id, prompt_id, agent_id, last_pulled_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (prompt_id, agent_id)
		DO UPDATE SET last_pulled_at = now()`,
		uuid.NewString(), promptID, agentID,
	)
	if err != nil {
		return storageWrap(err, "upsert subscription %s -> %s", agentID, promptID)
	}
	return nil
}

// ListSubscribers returns all agents subscribed to a prompt.
func (s *Store) ListSubscribers(ctx context.Context, promptID string) ([]subscription.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, prompt_id, agent_id, subscribed_at, last_pulled_at
		FROM prompt_subscriptions
		WHERE prompt_id = $1
		ORDER BY subscribed_at`,
		promptID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscribers of %s: %w", promptID, err)
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		var sub subscription.Subscription
		if err := rows.Scan(&sub.ID, &sub.PromptID, &sub.AgentID, &sub.SubscribedAt, &sub.LastPulledAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
