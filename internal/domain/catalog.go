package domain

import (
	"errors"
	"fmt"
)

const (
	MinQuestScore = 1
	MaxQuestScore = 5
)

var ErrInvalidCatalog = errors.New("invalid quest catalog")

// CatalogEntry is one selectable quest identifier with its difficulty score.
type CatalogEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Catalog is the read-only list of entries cards are drawn from. Entry order
// is preserved because weighted selection walks it in a fixed order.
type Catalog struct {
	entries []CatalogEntry
}

// NewCatalog validates and copies entries. Names must be non-empty and scores
// within [MinQuestScore, MaxQuestScore].
func NewCatalog(entries []CatalogEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidCatalog)
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidCatalog, i)
		}
		if e.Score < MinQuestScore || e.Score > MaxQuestScore {
			return nil, fmt.Errorf("%w: %s has score %d", ErrInvalidCatalog, e.Name, e.Score)
		}
	}
	return &Catalog{entries: append([]CatalogEntry(nil), entries...)}, nil
}

// Entries returns a copy of the catalog.
func (c *Catalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

func (c *Catalog) Len() int { return len(c.entries) }

// Eligible counts distinct names with a positive weight under d.
func (c *Catalog) Eligible(d Difficulty) int {
	seen := make(map[string]struct{})
	for _, e := range c.entries {
		if d.Weight(e.Score) > 0 {
			seen[e.Name] = struct{}{}
		}
	}
	return len(seen)
}
