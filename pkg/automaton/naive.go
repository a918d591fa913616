package automaton

import "strings"

// Naive searches each key independently. Scans cost O(keys x text); it is
// the reference implementation the Aho-Corasick matcher is tested against.
type Naive struct{}

func (Naive) Compile(keys []string) (Automaton, error) {
	if err := validateKeys(keys); err != nil {
		return nil, err
	}
	p := make([]string, len(keys))
	copy(p, keys)
	return naiveAutomaton(p), nil
}

type naiveAutomaton []string

func (n naiveAutomaton) Len() int { return len(n) }

func (n naiveAutomaton) Scan(text string) []Occurrence {
	var occs []Occurrence
	for idx, key := range n {
		for from := 0; from <= len(text)-len(key); {
			i := strings.Index(text[from:], key)
			if i < 0 {
				break
			}
			start := from + i
			occs = append(occs, Occurrence{Key: key, Pattern: idx, Start: start, End: start + len(key)})
			from = start + 1
		}
	}
	sortOccurrences(occs)
	return occs
}
