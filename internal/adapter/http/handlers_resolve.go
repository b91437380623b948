package http

import (
	"net/http"
	"time"

	"github.com/promptforge/promptforge/internal/adapter/otel"
)

// ResolvePrompt composes the role-filtered view of a version. version=0 or
// an absent version selects the branch head. An X-Agent-ID header subscribes
// the caller to future updates.
// GET /api/v1/prompts/{ref}/resolve/{role}?branch=&version=
func (h *Handlers) ResolvePrompt(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	number, ok := queryInt(r, "version", 0)
	if !ok || number < 0 {
		writeError(w, http.StatusBadRequest, "version must be a non-negative integer")
		return
	}

	ctx, span := otel.StartResolveSpan(r.Context(), p.ID, urlParam(r, "role"))
	defer span.End()

	start := time.Now()
	composed, err := h.resolver.Resolve(ctx, p.ID, r.URL.Query().Get("branch"), number, urlParam(r, "role"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}
	if h.metrics != nil {
		h.metrics.Resolves.Add(ctx, 1)
		h.metrics.ResolveDuration.Record(ctx, time.Since(start).Seconds())
	}

	h.resolver.TrackPull(ctx, p.ID, r.Header.Get(headerAgentID))
	writeJSON(w, http.StatusOK, composed)
}

// Health reports service liveness and queue connectivity.
// GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":         "ok",
		"nats_connected": h.queue.IsConnected(),
	}
	writeJSON(w, http.StatusOK, status)
}
