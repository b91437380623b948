package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Section is a single named block of text inside a prompt document.
type Section struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Content is an ordered section map: named text blocks whose order is
// significant and preserved across JSON round-trips. A plain Go map would
// lose the order, so Content keeps a slice alongside a key index.
//
// The zero value is an empty Content ready for use.
type Content struct {
	sections []Section
	index    map[string]int
}

// ContentFromSections builds a Content from sections in the given order.
// A repeated key overwrites the text at the key's first position.
func ContentFromSections(sections []Section) Content {
	var c Content
	for _, s := range sections {
		c.Set(s.Key, s.Text)
	}
	return c
}

// Len returns the number of sections.
func (c Content) Len() int { return len(c.sections) }

// Keys returns the section keys in content order.
func (c Content) Keys() []string {
	keys := make([]string, len(c.sections))
	for i, s := range c.sections {
		keys[i] = s.Key
	}
	return keys
}

// Sections returns a copy of the sections in content order.
func (c Content) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Get returns the text for a key and whether the key is present.
func (c Content) Get(key string) (string, bool) {
	i, ok := c.index[key]
	if !ok {
		return "", false
	}
	return c.sections[i].Text, true
}

// Set stores text under key, appending the key if it is new and keeping the
// original position if it already exists.
func (c *Content) Set(key, text string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[key]; ok {
		c.sections[i].Text = text
		return
	}
	c.index[key] = len(c.sections)
	c.sections = append(c.sections, Section{Key: key, Text: text})
}

// MarshalJSON encodes the content as a JSON object with keys in content order.
func (c Content) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range c.sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(s.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order. Values must be
// strings; anything else is rejected.
func (c *Content) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("content must be a JSON object, got %v", tok)
	}

	c.sections = nil
	c.index = nil

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("content key must be a string, got %v", keyTok)
		}

		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("section %q: expected string value: %w", key, err)
		}
		c.Set(key, text)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
