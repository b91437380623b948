package http

import (
	"net/http"

	"github.com/promptforge/promptforge/internal/domain/prompt"
)

// CreatePrompt registers a new prompt.
// POST /api/v1/prompts
func (h *Handlers) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[prompt.CreateRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	p, err := h.registry.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListPrompts returns all registered prompts.
// GET /api/v1/prompts
func (h *Handlers) ListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.registry.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "prompts not found")
		return
	}
	if prompts == nil {
		prompts = []prompt.Prompt{}
	}
	writeJSON(w, http.StatusOK, prompts)
}

// GetPrompt returns one prompt by slug or ID.
// GET /api/v1/prompts/{ref}
func (h *Handlers) GetPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListSubscribers returns the agents following a prompt.
// GET /api/v1/prompts/{ref}/subscribers
func (h *Handlers) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	subs, err := h.resolver.Subscribers(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
