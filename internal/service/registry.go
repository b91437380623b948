// Package service implements the business logic of PromptForge on top of the
// storage, queue, and cache ports.
package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/port/database"
)

// slugPattern matches URL-safe prompt slugs.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// RegistryService manages the prompt registry: identity rows that version
// histories hang off.
type RegistryService struct {
	store database.Store
}

// NewRegistryService creates a new registry service.
func NewRegistryService(store database.Store) *RegistryService {
	return &RegistryService{store: store}
}

// Create registers a new prompt. The slug must be unique and URL-safe.
func (s *RegistryService) Create(ctx context.Context, req prompt.CreateRequest) (*prompt.Prompt, error) {
	if !slugPattern.MatchString(req.Slug) {
		return nil, fmt.Errorf("slug %q is not a valid identifier: %w", req.Slug, domain.ErrValidation)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}

	p := &prompt.Prompt{
		ID:          uuid.NewString(),
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.store.CreatePrompt(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a prompt by ID.
func (s *RegistryService) Get(ctx context.Context, id string) (*prompt.Prompt, error) {
	return s.store.GetPrompt(ctx, id)
}

// GetBySlug returns a prompt by its slug.
func (s *RegistryService) GetBySlug(ctx context.Context, slug string) (*prompt.Prompt, error) {
	return s.store.GetPromptBySlug(ctx, slug)
}

// List returns all registered prompts.
func (s *RegistryService) List(ctx context.Context) ([]prompt.Prompt, error) {
	return s.store.ListPrompts(ctx)
}
