// Package subscription provides the agent subscription model: which agents
// follow a prompt and when they last pulled it.
package subscription

import "time"

// Subscription links an agent to a prompt it consumes. Created implicitly
// when an agent pulls a version with an X-Agent-ID header.
type Subscription struct {
	ID           string    `json:"id"`
	PromptID     string    `json:"prompt_id"`
	AgentID      string    `json:"agent_id"`
	SubscribedAt time.Time `json:"subscribed_at"`
	LastPulledAt time.Time `json:"last_pulled_at"`
}
