// Package role provides the role-profile table and the composition resolver
// that renders a role-filtered view of a committed version.
package role

import (
	"fmt"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/prompt"
	"github.com/promptforge/promptforge/internal/domain/version"
)

// AllSections is the profile sentinel meaning "every section, content order".
const AllSections = "*"

// Profile is one role's section policy: either the full document or an
// explicit ordered allow-list of section keys.
type Profile struct {
	Role     string
	All      bool
	Sections []string
}

// Table is a read-only mapping of role name to Profile. It is never mutated
// at runtime; build a new Table to change policies.
type Table struct {
	profiles map[string]Profile
}

// NewTable builds a Table from role -> section-key lists. A list containing
// the AllSections sentinel grants the full document.
func NewTable(roles map[string][]string) *Table {
	t := &Table{profiles: make(map[string]Profile, len(roles))}
	for name, sections := range roles {
		p := Profile{Role: name}
		for _, s := range sections {
			if s == AllSections {
				p.All = true
				p.Sections = nil
				break
			}
			p.Sections = append(p.Sections, s)
		}
		t.profiles[name] = p
	}
	return t
}

// DefaultTable returns the built-in role profiles.
func DefaultTable() *Table {
	return NewTable(map[string][]string{
		"king":      {AllSections},
		"developer": {"voice", "identity", "boundaries", "thinking_mode", "anti_patterns", "communication_rules"},
		"reviewer":  {"voice", "identity", "boundaries", "communication_rules"},
		"tester":    {"voice", "identity", "boundaries", "communication_rules"},
		"security":  {"voice", "identity", "boundaries", "communication_rules"},
	})
}

// Lookup returns the profile for a role.
func (t *Table) Lookup(role string) (Profile, bool) {
	p, ok := t.profiles[role]
	return p, ok
}

// Roles returns the number of configured roles.
func (t *Table) Roles() int { return len(t.profiles) }

// ComposedPrompt is the role-filtered view of one version: the version's
// identity stamp plus the sections actually exposed, in policy order.
type ComposedPrompt struct {
	PromptID string           `json:"prompt_id"`
	Branch   string           `json:"branch"`
	Version  int              `json:"version"`
	Role     string           `json:"role"`
	Sections []prompt.Section `json:"sections"`
}

// Resolve renders the composed view of v for a role. For an "all" profile
// the output is every section in content order. For an allow-list profile
// the output follows the list's declared order; listed keys absent from the
// content are skipped silently, since profiles are independent of any one
// document's sections. An unknown role fails; there is no default role.
func (t *Table) Resolve(v *version.Version, roleName string) (*ComposedPrompt, error) {
	profile, ok := t.Lookup(roleName)
	if !ok {
		return nil, fmt.Errorf("role %q: %w", roleName, domain.ErrRolePolicyUnknown)
	}

	composed := &ComposedPrompt{
		PromptID: v.PromptID,
		Branch:   v.Branch,
		Version:  v.Number,
		Role:     roleName,
		Sections: []prompt.Section{},
	}

	if profile.All {
		composed.Sections = v.Content.Sections()
		return composed, nil
	}

	for _, key := range profile.Sections {
		if text, ok := v.Content.Get(key); ok {
			composed.Sections = append(composed.Sections, prompt.Section{Key: key, Text: text})
		}
	}
	return composed, nil
}
