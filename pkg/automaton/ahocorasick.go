package automaton

import (
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// AhoCorasick compiles keys into an Aho-Corasick DFA. Construction is linear
// in the total key length; a scan is linear in the text length plus the
// number of occurrences, whatever the size of the key set.
type AhoCorasick struct{}

// Compile builds the automaton. An empty key set yields an automaton that
// never matches.
func (AhoCorasick) Compile(keys []string) (Automaton, error) {
	if err := validateKeys(keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return emptyAutomaton{}, nil
	}

	p := make([]string, len(keys))
	copy(p, keys)

	// Overlapping iteration requires standard match semantics.
	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		MatchKind: aho.StandardMatch,
		DFA:       true,
	})
	return &acAutomaton{ac: builder.Build(p), keys: p}, nil
}

type acAutomaton struct {
	ac   aho.AhoCorasick
	keys []string
}

func (a *acAutomaton) Len() int { return len(a.keys) }

func (a *acAutomaton) Scan(text string) []Occurrence {
	if text == "" {
		return nil
	}
	iter := a.ac.IterOverlappingByte([]byte(text))
	var occs []Occurrence
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		occs = append(occs, Occurrence{
			Key:     a.keys[m.Pattern()],
			Pattern: m.Pattern(),
			Start:   m.Start(),
			End:     m.End(),
		})
	}
	sortOccurrences(occs)
	return occs
}
