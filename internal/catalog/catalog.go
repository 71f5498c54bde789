// Package catalog loads the quest catalog: a JSON list of item names with a
// difficulty score from 1 to 5.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"bingo/internal/domain"
)

//go:embed scores.json
var defaultScores []byte

// Parse decodes a scores.json document.
func Parse(data []byte) (*domain.Catalog, error) {
	var entries []domain.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return domain.NewCatalog(entries)
}

// Default returns the bundled catalog.
func Default() (*domain.Catalog, error) {
	return Parse(defaultScores)
}

// Load reads a catalog file.
func Load(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault reads path when it is set and exists, and otherwise falls
// back to the bundled catalog. fromFile reports which one was used. A file
// that exists but does not parse is an error.
func LoadOrDefault(path string) (c *domain.Catalog, fromFile bool, err error) {
	if path != "" {
		c, err = Load(path)
		if err == nil {
			return c, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, err
		}
	}
	c, err = Default()
	return c, false, err
}
