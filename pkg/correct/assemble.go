package correct

import "strings"

// Pair links a canonical name to the match key that produced it. In phonetic
// mode Variant is the phonetic key.
type Pair struct {
	Canonical string `json:"canonical"`
	Variant   string `json:"variant"`
}

// Match is one substituted span. Start and End are byte offsets into
// Result.Text.
type Match struct {
	Canonical string `json:"canonical"`
	Key       string `json:"key"`
	Surface   string `json:"surface"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// Result is the output of one Run. It shares no state with the engine.
type Result struct {
	Text       string   `json:"text"`      // normalized input
	Corrected  string   `json:"corrected"` // Text with every match substituted
	Pairs      []Pair   `json:"pairs"`
	Canonicals []string `json:"canonicals"` // first-seen order, no duplicates
	Matches    []Match  `json:"matches"`    // ordered by Start
}

func emptyResult() *Result {
	return &Result{
		Pairs:      []Pair{},
		Canonicals: []string{},
		Matches:    []Match{},
	}
}

// changed counts matches whose surface differs from the canonical name.
func (r *Result) changed() int {
	n := 0
	for _, m := range r.Matches {
		if m.Surface != m.Canonical {
			n++
		}
	}
	return n
}

// assemble substitutes spans, which must be ordered and non-overlapping, into
// text.
func (e *Engine) assemble(text string, spans []span) *Result {
	res := emptyResult()
	res.Text = text

	var sb strings.Builder
	sb.Grow(len(text))
	seenPair := make(map[Pair]struct{})
	seenCanon := make(map[string]struct{})
	prev := 0

	for _, s := range spans {
		canonical, ok := e.dict.Lookup(s.key)
		if !ok {
			continue
		}
		sb.WriteString(text[prev:s.start])
		sb.WriteString(canonical)
		prev = s.end

		res.Matches = append(res.Matches, Match{
			Canonical: canonical,
			Key:       s.key,
			Surface:   text[s.start:s.end],
			Start:     s.start,
			End:       s.end,
		})
		p := Pair{Canonical: canonical, Variant: s.key}
		if _, dup := seenPair[p]; !dup {
			seenPair[p] = struct{}{}
			res.Pairs = append(res.Pairs, p)
		}
		if _, dup := seenCanon[canonical]; !dup {
			seenCanon[canonical] = struct{}{}
			res.Canonicals = append(res.Canonicals, canonical)
		}
	}
	sb.WriteString(text[prev:])
	res.Corrected = sb.String()
	return res
}
