package correct

import (
	"sort"
	"strings"

	"github.com/hazyhaar/entitycorrect/pkg/automaton"
	"github.com/hazyhaar/entitycorrect/pkg/translit"
)

// span is a resolved occurrence located in the normalized input text.
type span struct {
	key        string
	start, end int
}

func literalSpans(occs []automaton.Occurrence) []span {
	out := make([]span, len(occs))
	for i, o := range occs {
		out[i] = span{key: o.Key, start: o.Start, end: o.End}
	}
	return out
}

// tokenMap relates byte offsets of the joined phonetic string back to the
// tokens that produced it.
type tokenMap struct {
	tokens  []translit.Token
	scanned string
	startAt map[int]int // scanned offset -> index of the token starting there
	endAt   map[int]int // scanned offset -> index of the token ending there
}

func newTokenMap(tokens []translit.Token, delim string) *tokenMap {
	m := &tokenMap{
		tokens:  tokens,
		startAt: make(map[int]int, len(tokens)),
		endAt:   make(map[int]int, len(tokens)),
	}
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteString(delim)
		}
		m.startAt[sb.Len()] = i
		sb.WriteString(t.Text)
		m.endAt[sb.Len()] = i
	}
	m.scanned = sb.String()
	return m
}

// aligned keeps occurrences that begin at a token start and finish at a token
// end. A key matching across part of a syllable is not a mention.
func (m *tokenMap) aligned(occs []automaton.Occurrence) []automaton.Occurrence {
	out := occs[:0:0]
	for _, o := range occs {
		first, ok := m.startAt[o.Start]
		if !ok {
			continue
		}
		last, ok := m.endAt[o.End]
		if !ok || last < first {
			continue
		}
		out = append(out, o)
	}
	return out
}

// spans maps each aligned occurrence to the union of its tokens' spans in
// the original text.
func (m *tokenMap) spans(occs []automaton.Occurrence) []span {
	out := make([]span, 0, len(occs))
	for _, o := range occs {
		first := m.startAt[o.Start]
		last := m.endAt[o.End]
		out = append(out, span{
			key:   o.Key,
			start: m.tokens[first].Start,
			end:   m.tokens[last].End,
		})
	}
	return out
}

// selectSpans picks a non-overlapping subset: leftmost start wins, and the
// longer span wins on an equal start. The result is ordered by start.
func selectSpans(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return a.key < b.key
	})

	out := sorted[:0]
	end := -1
	for _, s := range sorted {
		if s.start < end {
			continue
		}
		out = append(out, s)
		end = s.end
	}
	return out
}
