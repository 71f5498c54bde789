package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DefaultCardSize is the side length of a standard card.
const DefaultCardSize = 5

var ErrInvalidCard = errors.New("invalid card")

// Card is an immutable N×N grid of distinct quests stored in row-major order.
type Card struct {
	id     string
	size   int
	quests []Quest
	index  map[Quest]int
}

// NewCard builds a card of the given side length. It fails when the number of
// quests is not size² or a quest appears twice.
func NewCard(size int, quests []Quest) (*Card, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidCard, size)
	}
	if len(quests) != size*size {
		return nil, fmt.Errorf("%w: %d quests for a %dx%d card", ErrInvalidCard, len(quests), size, size)
	}
	index := make(map[Quest]int, len(quests))
	for i, q := range quests {
		if q.IsZero() {
			return nil, fmt.Errorf("%w: empty quest at cell %d", ErrInvalidCard, i)
		}
		if _, dup := index[q]; dup {
			return nil, fmt.Errorf("%w: duplicate quest %s", ErrInvalidCard, q)
		}
		index[q] = i
	}
	return &Card{
		id:     uuid.NewString(),
		size:   size,
		quests: append([]Quest(nil), quests...),
		index:  index,
	}, nil
}

// ID identifies this card instance. A regenerated card always has a new id.
func (c *Card) ID() string { return c.id }

// Size is the side length N.
func (c *Card) Size() int { return c.size }

// Len is the number of cells, N².
func (c *Card) Len() int { return len(c.quests) }

// Quests returns a copy of the cells in row-major order.
func (c *Card) Quests() []Quest {
	return append([]Quest(nil), c.quests...)
}

// Cell returns the quest at a row-major index.
func (c *Card) Cell(i int) Quest { return c.quests[i] }

// At returns the quest at row, col.
func (c *Card) At(row, col int) Quest { return c.quests[row*c.size+col] }

// IndexOf returns the row-major index of q.
func (c *Card) IndexOf(q Quest) (int, bool) {
	i, ok := c.index[q]
	return i, ok
}

// Contains reports whether q is exactly one of the card's quests.
func (c *Card) Contains(q Quest) bool {
	_, ok := c.index[q]
	return ok
}

// Resolve maps an acquired quest to the card quest it satisfies. Exact matches
// win; otherwise the first cell in row-major order that the acquisition
// satisfies is returned.
func (c *Card) Resolve(acquired Quest) (Quest, bool) {
	if _, ok := c.index[acquired]; ok {
		return acquired, true
	}
	for _, q := range c.quests {
		if q.Satisfies(acquired) {
			return q, true
		}
	}
	return Quest{}, false
}

// Lines returns the cell indices of every winning line: each row, each
// column, the main diagonal and the anti-diagonal, in that order.
func (c *Card) Lines() [][]int {
	n := c.size
	lines := make([][]int, 0, 2*n+2)
	for r := 0; r < n; r++ {
		row := make([]int, n)
		for col := 0; col < n; col++ {
			row[col] = r*n + col
		}
		lines = append(lines, row)
	}
	for col := 0; col < n; col++ {
		column := make([]int, n)
		for r := 0; r < n; r++ {
			column[r] = r*n + col
		}
		lines = append(lines, column)
	}
	diag := make([]int, n)
	anti := make([]int, n)
	for i := 0; i < n; i++ {
		diag[i] = i*n + i
		anti[i] = i*n + (n - 1 - i)
	}
	return append(lines, diag, anti)
}
