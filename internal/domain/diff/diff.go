// Package diff compares two prompt section maps at section granularity.
// It is a pure function over already-fetched content and never touches
// storage.
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/promptforge/promptforge/internal/domain/prompt"
)

// Kind classifies how one section changed between two contents.
type Kind string

const (
	KindAdded     Kind = "added"
	KindRemoved   Kind = "removed"
	KindModified  Kind = "modified"
	KindUnchanged Kind = "unchanged"
)

// Entry describes one section in the diff. OldText is absent for added
// sections, NewText for removed ones. Patch carries a character-level patch
// of old to new text for modified sections so consumers don't re-diff.
type Entry struct {
	Key     string  `json:"key"`
	Kind    Kind    `json:"kind"`
	OldText *string `json:"old_text,omitempty"`
	NewText *string `json:"new_text,omitempty"`
	Patch   string  `json:"patch,omitempty"`
}

// Summary aggregates counts per change kind. Similarity is the share of
// unchanged sections over all sections considered, 1.0 when none.
type Summary struct {
	Added      int     `json:"added"`
	Removed    int     `json:"removed"`
	Modified   int     `json:"modified"`
	Unchanged  int     `json:"unchanged"`
	Similarity float64 `json:"similarity"`
}

// Result is the full structural diff of two contents.
type Result struct {
	Changes []Entry `json:"changes"`
	Summary Summary `json:"summary"`
}

// Compare diffs two section maps. Entries are ordered as: every key of a in
// a's order, then keys present only in b in b's order. Section equality is
// byte equality of canonicalized text.
func Compare(a, b prompt.Content) Result {
	dmp := diffmatchpatch.New()

	res := Result{Changes: []Entry{}}
	add := func(e Entry) {
		res.Changes = append(res.Changes, e)
		switch e.Kind {
		case KindAdded:
			res.Summary.Added++
		case KindRemoved:
			res.Summary.Removed++
		case KindModified:
			res.Summary.Modified++
		case KindUnchanged:
			res.Summary.Unchanged++
		}
	}

	for _, key := range a.Keys() {
		oldText, _ := a.Get(key)
		newText, inB := b.Get(key)
		switch {
		case !inB:
			add(Entry{Key: key, Kind: KindRemoved, OldText: &oldText})
		case prompt.CanonicalText(oldText) == prompt.CanonicalText(newText):
			add(Entry{Key: key, Kind: KindUnchanged, OldText: &oldText, NewText: &newText})
		default:
			patches := dmp.PatchMake(prompt.CanonicalText(oldText), prompt.CanonicalText(newText))
			add(Entry{
				Key:     key,
				Kind:    KindModified,
				OldText: &oldText,
				NewText: &newText,
				Patch:   dmp.PatchToText(patches),
			})
		}
	}

	for _, key := range b.Keys() {
		if _, inA := a.Get(key); inA {
			continue
		}
		newText, _ := b.Get(key)
		add(Entry{Key: key, Kind: KindAdded, NewText: &newText})
	}

	total := len(res.Changes)
	if total == 0 {
		res.Summary.Similarity = 1.0
	} else {
		res.Summary.Similarity = float64(res.Summary.Unchanged) / float64(total)
	}
	return res
}
