// Package automaton finds every occurrence of a fixed key set in a text.
//
// Matching is exact substring matching. Scans report all occurrences,
// including keys nested inside other keys and keys overlapping each other:
// callers that resolve overlaps need to see every candidate, not a greedy
// leftmost selection.
package automaton

import (
	"errors"
	"sort"
)

// ErrEmptyKey is returned when a key set contains the empty string.
var ErrEmptyKey = errors.New("automaton: empty key")

// Occurrence is one located key in a scanned text. Offsets are bytes.
type Occurrence struct {
	Key     string `json:"key"`
	Pattern int    `json:"pattern"` // index of Key in the compiled key set
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Automaton is a compiled, read-only index over a key set.
// Implementations must be safe for concurrent Scan calls.
type Automaton interface {
	// Scan returns every occurrence of every key in text, ordered by end
	// offset, then by start offset (longest first).
	Scan(text string) []Occurrence
	// Len returns the number of compiled keys.
	Len() int
}

// PatternMatcher compiles key sets into automata.
type PatternMatcher interface {
	Compile(keys []string) (Automaton, error)
}

func validateKeys(keys []string) error {
	for _, k := range keys {
		if k == "" {
			return ErrEmptyKey
		}
	}
	return nil
}

// sortOccurrences puts occurrences in the order documented on Scan.
func sortOccurrences(occs []Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		if occs[i].End != occs[j].End {
			return occs[i].End < occs[j].End
		}
		return occs[i].Start < occs[j].Start
	})
}

type emptyAutomaton struct{}

func (emptyAutomaton) Scan(string) []Occurrence { return nil }
func (emptyAutomaton) Len() int                 { return 0 }
