package prompt

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
)

// keyPattern is the allowed shape of a section key. Keys come from an open
// vocabulary (no fixed schema), but they must be short lowercase identifiers
// so they survive round-trips through role profiles and event payloads.
var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,127}$`)

// Canonicalize validates content and returns its canonical form: every
// section key checked against keyPattern and every text normalized to LF
// line endings. Section order is preserved. Empty content is invalid.
func Canonicalize(c Content) (Content, error) {
	if c.Len() == 0 {
		return Content{}, fmt.Errorf("content has no sections: %w", domain.ErrInvalidContent)
	}

	var out Content
	for _, s := range c.sections {
		if !keyPattern.MatchString(s.Key) {
			return Content{}, fmt.Errorf("section key %q: %w", s.Key, domain.ErrInvalidContent)
		}
		out.Set(s.Key, CanonicalText(s.Text))
	}
	return out, nil
}

// CanonicalText normalizes line endings to LF. Diff equality and content
// hashing both operate on this form so that CRLF-only edits are not changes.
func CanonicalText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// HashContent computes the content hash: SHA-256 over length-prefixed
// (key, canonical text) pairs in sorted key order. The hash is a pure
// function of the section map, independent of insertion order.
func HashContent(c Content) string {
	keys := c.Keys()
	sort.Strings(keys)

	h := sha256.New()
	var lenBuf [4]byte
	writeField := func(s string) {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	for _, k := range keys {
		text, _ := c.Get(k)
		writeField(k)
		writeField(CanonicalText(text))
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
