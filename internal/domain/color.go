package domain

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// maxColor is the largest 24-bit RGB value.
	maxColor = 0xFFFFFF
	// maxColorAttempts bounds rejection sampling for an unused color.
	maxColorAttempts = 1000
)

var ErrColorExhausted = errors.New("no unused team color available")

// Color is a 24-bit RGB display color.
type Color uint32

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&maxColor)
}

// pickColor draws uniformly from the 24-bit space until it finds a color not
// in used, giving up after maxColorAttempts draws.
func pickColor(rng *rand.Rand, used map[Color]*Team) (Color, error) {
	for i := 0; i < maxColorAttempts; i++ {
		c := Color(rng.Intn(maxColor + 1))
		if _, taken := used[c]; !taken {
			return c, nil
		}
	}
	return 0, ErrColorExhausted
}
