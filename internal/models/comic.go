// Package models defines the domain types for Marble.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ComicID identifies a comic across the catalog, the keyword index,
// translations and the progress tracker.
type ComicID uint64

// String returns the decimal form used in URLs and tracker keys.
func (id ComicID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseComicID parses the decimal form produced by String.
func ParseComicID(s string) (ComicID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("models: invalid comic id %q: %w", s, err)
	}
	return ComicID(n), nil
}

// Comic is the record stored in a comic directory's metadata file.
type Comic struct {
	ID           ComicID             `json:"id"`
	Name         *string             `json:"comic_name,omitempty"`
	Description  *string             `json:"description,omitempty"`
	Keywords     map[string][]string `json:"keywords"`
	Translations []Translation       `json:"translations"`
	Found        bool                `json:"found"`
}

// requiredFields must be present and non-null in every metadata file.
var requiredFields = []string{"id", "keywords", "translations", "found"}

// UnmarshalJSON accepts "name" as an alias of "comic_name" and rejects
// records missing any of the required fields.
func (c *Comic) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("comic: expected an object, got null")
	}
	for _, name := range requiredFields {
		raw, ok := fields[name]
		if !ok {
			return fmt.Errorf("comic: missing field %q", name)
		}
		if string(raw) == "null" {
			return fmt.Errorf("comic: field %q is null", name)
		}
	}

	type plain Comic
	aux := struct {
		*plain
		Alias *string `json:"name"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.Name == nil && aux.Alias != nil {
		c.Name = aux.Alias
	}
	return nil
}

// DisplayName returns the comic name, or "unnamed" when it has none.
func (c Comic) DisplayName() string {
	if c.Name == nil {
		return "unnamed"
	}
	return *c.Name
}

// Clone returns a deep copy so callers can't mutate catalog-owned state.
func (c Comic) Clone() Comic {
	out := c
	if c.Name != nil {
		name := *c.Name
		out.Name = &name
	}
	if c.Description != nil {
		desc := *c.Description
		out.Description = &desc
	}
	if c.Keywords != nil {
		out.Keywords = make(map[string][]string, len(c.Keywords))
		for cat, tags := range c.Keywords {
			out.Keywords[cat] = append([]string(nil), tags...)
		}
	}
	out.Translations = append([]Translation(nil), c.Translations...)
	return out
}

// Translation links a comic to a related edition, e.g. ("English", 12).
// It is encoded as a two-element JSON array.
type Translation struct {
	Label string
	ID    ComicID
}

// MarshalJSON encodes the translation as [label, id].
func (t Translation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{t.Label, t.ID})
}

// UnmarshalJSON decodes a [label, id] pair.
func (t *Translation) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("translation: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("translation: expected [label, id], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.Label); err != nil {
		return fmt.Errorf("translation label: %w", err)
	}
	if err := json.Unmarshal(pair[1], &t.ID); err != nil {
		return fmt.Errorf("translation id: %w", err)
	}
	return nil
}

// Progress is a reading position. The zero value is the start of a comic.
type Progress struct {
	Chapter int
	Page    int
}

// ErrNegativePosition is returned for a chapter or page below zero.
var ErrNegativePosition = errors.New("progress: negative position")

// Valid reports whether both indices are non-negative.
func (p Progress) Valid() bool {
	return p.Chapter >= 0 && p.Page >= 0
}

// MarshalJSON encodes the position as [chapter, page].
func (p Progress) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w [%d, %d]", ErrNegativePosition, p.Chapter, p.Page)
	}
	return json.Marshal([2]int{p.Chapter, p.Page})
}

// UnmarshalJSON decodes a [chapter, page] pair.
func (p *Progress) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("progress: expected [chapter, page], got %d elements", len(pair))
	}
	got := Progress{Chapter: pair[0], Page: pair[1]}
	if !got.Valid() {
		return fmt.Errorf("%w [%d, %d]", ErrNegativePosition, got.Chapter, got.Page)
	}
	*p = got
	return nil
}
