// Package http provides the REST API adapter.
package http

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/adapter/otel"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/port/messagequeue"
	"github.com/promptforge/promptforge/internal/service"
)

// defaultBodyLimit caps JSON request bodies at 1 MB.
const defaultBodyLimit int64 = 1 << 20

// headerAgentID identifies the pulling agent for auto-subscription.
const headerAgentID = "X-Agent-ID"

// Handlers holds all HTTP handlers and their service dependencies.
type Handlers struct {
	registry *service.RegistryService
	vcs      *service.VersionControlService
	resolver *service.ResolverService
	queue    messagequeue.Queue
	metrics  *otel.Metrics
}

// NewHandlers creates the handler set. metrics may be nil, in which case no
// instruments are recorded.
func NewHandlers(
	registry *service.RegistryService,
	vcs *service.VersionControlService,
	resolver *service.ResolverService,
	queue messagequeue.Queue,
	metrics *otel.Metrics,
) *Handlers {
	return &Handlers{registry: registry, vcs: vcs, resolver: resolver, queue: queue, metrics: metrics}
}

// resolveRef returns the prompt for a path reference, which is either the
// prompt's slug or its UUID. Slugs are the primary addressing scheme; IDs
// stay valid for callers that stored them. The ID fallback only runs for
// well-formed UUIDs: querying the uuid-typed id column with arbitrary text
// would error instead of missing.
func (h *Handlers) resolveRef(ctx context.Context, ref string) (*prompt.Prompt, error) {
	p, err := h.registry.GetBySlug(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) && uuid.Validate(ref) == nil {
		return h.registry.Get(ctx, ref)
	}
	return p, err
}
