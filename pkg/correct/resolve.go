package correct

import (
	"strings"

	"github.com/hazyhaar/entitycorrect/pkg/automaton"
)

// resolve drops exact duplicates and every occurrence whose key is a strict
// substring of another occurrence's key, wherever the two occur. Occurrences
// of one key at different positions are all kept. Scan order is preserved.
func resolve(occs []automaton.Occurrence) []automaton.Occurrence {
	if len(occs) == 0 {
		return nil
	}

	type pos struct {
		key        string
		start, end int
	}
	seen := make(map[pos]struct{}, len(occs))
	uniq := occs[:0:0]
	var keys []string
	keySeen := make(map[string]struct{})
	for _, o := range occs {
		p := pos{o.Key, o.Start, o.End}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, o)
		if _, ok := keySeen[o.Key]; !ok {
			keySeen[o.Key] = struct{}{}
			keys = append(keys, o.Key)
		}
	}

	contained := make(map[string]bool, len(keys))
	for _, k := range keys {
		for _, other := range keys {
			if len(other) > len(k) && strings.Contains(other, k) {
				contained[k] = true
				break
			}
		}
	}

	out := uniq[:0]
	for _, o := range uniq {
		if !contained[o.Key] {
			out = append(out, o)
		}
	}
	return out
}
