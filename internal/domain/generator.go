package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var ErrCatalogExhausted = errors.New("catalog has too few eligible entries")

// CardGenerator draws cards from a catalog using difficulty weights.
type CardGenerator struct {
	rng  *rand.Rand
	size int
}

// NewCardGenerator constructs a generator for size×size cards with the
// provided rng or a time-seeded default.
func NewCardGenerator(rng *rand.Rand, size int) *CardGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if size <= 0 {
		size = DefaultCardSize
	}
	return &CardGenerator{rng: rng, size: size}
}

// Generate picks size² distinct catalog names by weighted draws over the
// whole catalog, shuffles them and lays them out as item quests.
func (g *CardGenerator) Generate(catalog *Catalog, d Difficulty) (*Card, error) {
	cells := g.size * g.size
	if eligible := catalog.Eligible(d); eligible < cells {
		return nil, fmt.Errorf("%w: %d of %d needed for %s", ErrCatalogExhausted, eligible, cells, d)
	}

	entries := catalog.entries
	total := 0
	for _, e := range entries {
		total += d.Weight(e.Score)
	}

	chosen := make(map[string]struct{}, cells)
	order := make([]string, 0, cells)
	for len(order) < cells {
		name := g.draw(entries, d, total)
		if _, dup := chosen[name]; dup {
			continue
		}
		chosen[name] = struct{}{}
		order = append(order, name)
	}

	g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	quests := make([]Quest, cells)
	for i, name := range order {
		quests[i] = NewItemQuest(name)
	}
	return NewCard(g.size, quests)
}

func (g *CardGenerator) draw(entries []CatalogEntry, d Difficulty, total int) string {
	pick := g.rng.Intn(total)
	for _, e := range entries {
		w := d.Weight(e.Score)
		if pick < w {
			return e.Name
		}
		pick -= w
	}
	// Unreachable while total matches the sum of weights.
	return entries[len(entries)-1].Name
}
