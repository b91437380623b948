package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/promptforge/promptforge/internal/adapter/otel"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/version"
)

// CommitVersion appends a new version to a branch.
// POST /api/v1/prompts/{ref}/versions
func (h *Handlers) CommitVersion(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	req, ok := readJSON[version.CommitRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	ctx, span := otel.StartCommitSpan(r.Context(), p.ID, req.Branch)
	defer span.End()

	v, err := h.vcs.Commit(ctx, p.ID, req)
	if err != nil {
		if h.metrics != nil && errors.Is(err, domain.ErrConflict) {
			h.metrics.CommitConflicts.Add(ctx, 1)
		}
		writeDomainError(w, err, "prompt not found")
		return
	}
	if h.metrics != nil {
		h.metrics.Commits.Add(ctx, 1)
	}
	writeJSON(w, http.StatusCreated, v)
}

// ListVersions returns version metadata newest first. An unknown branch is
// an empty history, not an error.
// GET /api/v1/prompts/{ref}/versions?branch=&limit=
func (h *Handlers) ListVersions(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok || (r.URL.Query().Get("limit") != "" && limit < 1) {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	metas, err := h.vcs.History(r.Context(), p.ID, r.URL.Query().Get("branch"), limit)
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}
	if metas == nil {
		metas = []version.Meta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

// GetVersion returns one full version. The number segment is either a
// positive integer or the literal "head". An X-Agent-ID header subscribes
// the caller to future updates.
// GET /api/v1/prompts/{ref}/versions/{number}?branch=
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	number, ok := parseVersionSegment(urlParam(r, "number"))
	if !ok {
		writeError(w, http.StatusBadRequest, "version must be a positive integer or \"head\"")
		return
	}

	v, err := h.vcs.GetVersion(r.Context(), p.ID, r.URL.Query().Get("branch"), number)
	if err != nil {
		writeDomainError(w, err, "version not found")
		return
	}

	h.resolver.TrackPull(r.Context(), p.ID, r.Header.Get(headerAgentID))
	writeJSON(w, http.StatusOK, v)
}

// ListBranches returns all branches of a prompt.
// GET /api/v1/prompts/{ref}/branches
func (h *Handlers) ListBranches(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	branches, err := h.vcs.Branches(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}
	if branches == nil {
		branches = []version.Branch{}
	}
	writeJSON(w, http.StatusOK, branches)
}

// DiffVersions compares two versions at section granularity. from/to 0
// selects the branch head.
// GET /api/v1/prompts/{ref}/diff?branch=&from=&to=
func (h *Handlers) DiffVersions(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	from, okFrom := queryInt(r, "from", 0)
	to, okTo := queryInt(r, "to", 0)
	if !okFrom || !okTo || from < 0 || to < 0 {
		writeError(w, http.StatusBadRequest, "from and to must be non-negative integers")
		return
	}

	result, err := h.vcs.Diff(r.Context(), p.ID, r.URL.Query().Get("branch"), from, to)
	if err != nil {
		writeDomainError(w, err, "version not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RollbackVersion commits a copy of an earlier version as the new head.
// POST /api/v1/prompts/{ref}/rollback
func (h *Handlers) RollbackVersion(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveRef(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "prompt not found")
		return
	}

	req, ok := readJSON[version.RollbackRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	v, err := h.vcs.Rollback(r.Context(), p.ID, req)
	if err != nil {
		writeDomainError(w, err, "version not found")
		return
	}
	if h.metrics != nil {
		h.metrics.Rollbacks.Add(r.Context(), 1)
	}
	writeJSON(w, http.StatusCreated, v)
}

// parseVersionSegment maps "head" to 0 and otherwise requires a positive
// integer.
func parseVersionSegment(s string) (int, bool) {
	if s == "head" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
