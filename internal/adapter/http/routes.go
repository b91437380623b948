package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. idem is the
// idempotency-key replay middleware for mutating version routes; pass nil to
// mount without it.
func MountRoutes(r chi.Router, h *Handlers, idem func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Prompt registry. {ref} is a slug or a prompt ID.
		r.Get("/prompts", h.ListPrompts)
		r.Post("/prompts", h.CreatePrompt)
		r.Get("/prompts/{ref}", h.GetPrompt)
		r.Get("/prompts/{ref}/subscribers", h.ListSubscribers)

		// Version control
		r.Get("/prompts/{ref}/versions", h.ListVersions)
		r.Get("/prompts/{ref}/versions/{number}", h.GetVersion)
		r.Get("/prompts/{ref}/branches", h.ListBranches)
		r.Get("/prompts/{ref}/diff", h.DiffVersions)

		// Mutating version routes carry Idempotency-Key replay so a retried
		// commit does not append twice.
		r.Group(func(r chi.Router) {
			if idem != nil {
				r.Use(idem)
			}
			r.Post("/prompts/{ref}/versions", h.CommitVersion)
			r.Post("/prompts/{ref}/rollback", h.RollbackVersion)
		})

		// Composition
		r.Get("/prompts/{ref}/resolve/{role}", h.ResolvePrompt)
	})
}
