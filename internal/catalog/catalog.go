// Package catalog holds the comics found in a library and the keyword
// index derived from them. A Catalog is built once by Load and is
// read-only afterwards, so it is safe for concurrent use without locks.
package catalog

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/marblecomic/marble/internal/models"
)

// Entry is a registered comic together with where it lives.
type Entry struct {
	Dir      string // directory relative to the library root
	Checksum string // SHA-256 of the metadata bytes
	Comic    models.Comic
}

// Keyword names one tag within a category.
type Keyword struct {
	Category string `json:"category"`
	Tag      string `json:"tag"`
}

// Catalog is the record store plus keyword index.
type Catalog struct {
	comics   map[models.ComicID]Entry
	order    []models.ComicID
	keywords map[string]map[string][]models.ComicID
	bitmaps  map[Keyword]*roaring64.Bitmap
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		comics:   make(map[models.ComicID]Entry),
		keywords: make(map[string]map[string][]models.ComicID),
		bitmaps:  make(map[Keyword]*roaring64.Bitmap),
	}
}

// add registers a comic and folds its keywords into the index. Ids are
// appended in call order; duplicates are the loader's responsibility.
func (c *Catalog) add(e Entry) {
	id := e.Comic.ID
	for category, tags := range e.Comic.Keywords {
		byTag, ok := c.keywords[category]
		if !ok {
			byTag = make(map[string][]models.ComicID)
			c.keywords[category] = byTag
		}
		for _, tag := range tags {
			byTag[tag] = append(byTag[tag], id)

			k := Keyword{Category: category, Tag: tag}
			bm, ok := c.bitmaps[k]
			if !ok {
				bm = roaring64.New()
				c.bitmaps[k] = bm
			}
			bm.Add(uint64(id))
		}
	}
	c.comics[id] = e
	c.order = append(c.order, id)
}

// Len returns the number of registered comics.
func (c *Catalog) Len() int { return len(c.comics) }

// Get returns a copy of the comic with the given id.
func (c *Catalog) Get(id models.ComicID) (models.Comic, bool) {
	e, ok := c.comics[id]
	if !ok {
		return models.Comic{}, false
	}
	return e.Comic.Clone(), true
}

// Entry returns the comic's catalog entry, including its directory.
func (c *Catalog) Entry(id models.ComicID) (Entry, bool) {
	e, ok := c.comics[id]
	if !ok {
		return Entry{}, false
	}
	e.Comic = e.Comic.Clone()
	return e, true
}

// Dir returns the comic's directory relative to the library root.
func (c *Catalog) Dir(id models.ComicID) (string, bool) {
	e, ok := c.comics[id]
	return e.Dir, ok
}

// All iterates over every comic in load order.
func (c *Catalog) All() iter.Seq2[models.ComicID, models.Comic] {
	return func(yield func(models.ComicID, models.Comic) bool) {
		for _, id := range c.order {
			if !yield(id, c.comics[id].Comic.Clone()) {
				return
			}
		}
	}
}

// Entries returns every entry sorted by comic id.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.comics))
	for _, e := range c.comics {
		e.Comic = e.Comic.Clone()
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Comic.ID, b.Comic.ID) })
	return out
}

// Keywords returns a copy of the category -> tag -> ids index.
func (c *Catalog) Keywords() map[string]map[string][]models.ComicID {
	out := make(map[string]map[string][]models.ComicID, len(c.keywords))
	for category, byTag := range c.keywords {
		cp := make(map[string][]models.ComicID, len(byTag))
		for tag, ids := range byTag {
			cp[tag] = slices.Clone(ids)
		}
		out[category] = cp
	}
	return out
}

// Categories returns the keyword categories in sorted order.
func (c *Catalog) Categories() []string {
	return slices.Sorted(maps.Keys(c.keywords))
}

// Tags returns the tags of a category in sorted order.
func (c *Catalog) Tags(category string) []string {
	return slices.Sorted(maps.Keys(c.keywords[category]))
}

// Tagged returns the ids that declared tag under category, in load order.
func (c *Catalog) Tagged(category, tag string) ([]models.ComicID, bool) {
	byTag, ok := c.keywords[category]
	if !ok {
		return nil, false
	}
	ids, ok := byTag[tag]
	return slices.Clone(ids), ok
}

// Match returns the ids carrying every given keyword, in ascending order.
// With no keywords it matches nothing.
func (c *Catalog) Match(keywords ...Keyword) []models.ComicID {
	if len(keywords) == 0 {
		return nil
	}
	var acc *roaring64.Bitmap
	for _, k := range keywords {
		bm, ok := c.bitmaps[k]
		if !ok {
			return nil
		}
		if acc == nil {
			acc = bm.Clone()
			continue
		}
		acc.And(bm)
		if acc.IsEmpty() {
			return nil
		}
	}
	raw := acc.ToArray()
	out := make([]models.ComicID, len(raw))
	for i, v := range raw {
		out[i] = models.ComicID(v)
	}
	return out
}
