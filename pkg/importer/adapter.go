package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter defines a synonym source importer that fetches records, validates
// them, and writes a dictionary directory (synonyms.tsv, data.gob,
// manifest.yaml).
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "banks-zh-tsv").
	ID() string
	// DictID returns the target dictionary ID (e.g. "banks-zh").
	DictID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source (e.g. "CC0").
	License() string
	// Import fetches the source at sourceURL and writes the dictionary into
	// a subdirectory of outputDir named after DictID(). It returns the
	// number of records written.
	Import(ctx context.Context, sourceURL, outputDir string) (int, error)
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry, replacing any adapter
// with the same ID.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Reset removes every registered adapter.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters = make(map[string]Adapter)
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
