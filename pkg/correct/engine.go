// Package correct rewrites entity mentions in free text to their canonical
// names.
//
// An [Engine] is compiled once from synonym records. Each [Engine.Run]
// normalizes the text, optionally transliterates it into phonetic tokens,
// scans it with a multi-pattern automaton, drops matches whose key is
// contained in another matched key, maps the survivors back onto the text
// and substitutes them by span.
package correct

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/entitycorrect/pkg/automaton"
	"github.com/hazyhaar/entitycorrect/pkg/dict"
	"github.com/hazyhaar/entitycorrect/pkg/observe"
	"github.com/hazyhaar/entitycorrect/pkg/translit"
)

// Engine corrects entity mentions against one compiled dictionary.
// It holds no mutable state after New returns and is safe for concurrent use.
type Engine struct {
	name      string
	dict      *dict.Dictionary
	auto      automaton.Automaton
	tr        translit.Transliterator // nil in literal mode
	delim     string
	normalize dict.Normalizer
	logger    *slog.Logger
	metrics   *observe.Metrics
}

type config struct {
	name      string
	tr        translit.Transliterator
	delim     string
	matcher   automaton.PatternMatcher
	normalize dict.Normalizer
	logger    *slog.Logger
	metrics   *observe.Metrics
}

// Option configures an Engine.
type Option func(*config)

// WithTransliterator enables phonetic matching through t.
func WithTransliterator(t translit.Transliterator) Option {
	return func(c *config) { c.tr = t }
}

// WithDelimiter sets the separator joining phonetic tokens in match keys.
// Default: dict.DefaultDelimiter.
func WithDelimiter(d string) Option {
	return func(c *config) { c.delim = d }
}

// WithMatcher replaces the default Aho-Corasick pattern matcher.
func WithMatcher(m automaton.PatternMatcher) Option {
	return func(c *config) { c.matcher = m }
}

// WithNormalizer sets the normalizer applied to variants and input text.
// Default: dict.NormalizeStripWhitespace, or dict.NormalizeCollapseWhitespace
// for word-separated transliterators such as Metaphone.
func WithNormalizer(n dict.Normalizer) Option {
	return func(c *config) { c.normalize = n }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics records runs and build diagnostics to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithName labels the engine in logs and metrics.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// New compiles records into an Engine. Every failure is a *dict.LoadError;
// no partial engine is returned.
func New(records []dict.Record, opts ...Option) (*Engine, error) {
	cfg := config{
		name:      "default",
		delim:     dict.DefaultDelimiter,
		matcher:   automaton.AhoCorasick{},
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.normalize == nil {
		cfg.normalize = dict.NormalizeStripWhitespace
		if cfg.tr != nil && translit.WordSeparated(cfg.tr) {
			cfg.normalize = dict.NormalizeCollapseWhitespace
		}
	}
	if cfg.tr != nil && cfg.delim == "" {
		return nil, &dict.LoadError{Reason: "phonetic delimiter must not be empty"}
	}

	e := &Engine{
		name:      cfg.name,
		tr:        cfg.tr,
		delim:     cfg.delim,
		normalize: cfg.normalize,
		logger:    cfg.logger.With("dict", cfg.name),
		metrics:   cfg.metrics,
	}

	d, err := dict.Build(records, e.matchKey)
	if err != nil {
		return nil, err
	}
	auto, err := cfg.matcher.Compile(d.Keys())
	if err != nil {
		return nil, &dict.LoadError{Reason: "compile automaton", Err: err}
	}
	e.dict = d
	e.auto = auto

	e.metrics.RecordOverwrites(context.Background(), e.name, d.Overwrites())
	e.logger.Info("engine compiled",
		"records", d.Records(),
		"keys", d.Len(),
		"overwrites", d.Overwrites(),
		"phonetic", e.tr != nil,
	)
	return e, nil
}

// NewFromTSV reads tab-separated synonym records from r and compiles them.
func NewFromTSV(r io.Reader, opts ...Option) (*Engine, error) {
	records, err := dict.ParseTSV(r)
	if err != nil {
		return nil, err
	}
	return New(records, opts...)
}

// matchKey computes the key indexed for variant v.
func (e *Engine) matchKey(v string) (string, error) {
	norm := e.normalize(v)
	if e.tr == nil {
		return norm, nil
	}
	tokens, err := e.tokenize(norm)
	if err != nil {
		return "", err
	}
	return translit.Join(tokens, e.delim), nil
}

// tokenize transliterates text, dropping empty tokens and rejecting tokens
// that contain the delimiter.
func (e *Engine) tokenize(text string) ([]translit.Token, error) {
	tokens, err := e.tr.Transliterate(text)
	if err != nil {
		return nil, err
	}
	kept := tokens[:0:0]
	for _, t := range tokens {
		if t.Text != "" {
			kept = append(kept, t)
		}
	}
	if err := translit.CheckDelimiter(e.tr.Name(), kept, e.delim); err != nil {
		return nil, err
	}
	return kept, nil
}

// Run corrects text. The input is normalized first; Result.Text holds the
// normalized form and every Match offset refers to it.
// The only error Run returns is a *translit.Error in phonetic mode, for
// malformed UTF-8 input whatever the normalizer, or a token holding the
// delimiter.
func (e *Engine) Run(text string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if res != nil {
			n = res.changed()
		}
		e.metrics.RecordRun(context.Background(), e.name, time.Since(start), n, err)
	}()

	if e.tr != nil && !utf8.ValidString(text) {
		return nil, &translit.Error{Name: e.tr.Name(), Input: text, Err: translit.ErrInvalidUTF8}
	}

	norm := e.normalize(text)
	if norm == "" {
		return emptyResult(), nil
	}

	var spans []span
	if e.tr == nil {
		spans = literalSpans(resolve(e.auto.Scan(norm)))
	} else {
		tokens, err := e.tokenize(norm)
		if err != nil {
			return nil, err
		}
		m := newTokenMap(tokens, e.delim)
		spans = m.spans(resolve(m.aligned(e.auto.Scan(m.scanned))))
	}

	res = e.assemble(norm, selectSpans(spans))
	if len(res.Matches) > 0 {
		e.logger.Debug("corrected", "matches", len(res.Matches), "canonicals", res.Canonicals)
	}
	return res, nil
}

// Stats describes a compiled engine.
type Stats struct {
	Name       string `json:"name"`
	Records    int    `json:"records"`
	Keys       int    `json:"keys"`
	Overwrites int    `json:"overwrites"`
	Phonetic   bool   `json:"phonetic"`
}

// Stats returns construction diagnostics, including the number of keys
// overwritten by later records.
func (e *Engine) Stats() Stats {
	return Stats{
		Name:       e.name,
		Records:    e.dict.Records(),
		Keys:       e.dict.Len(),
		Overwrites: e.dict.Overwrites(),
		Phonetic:   e.tr != nil,
	}
}

// Name returns the engine label.
func (e *Engine) Name() string { return e.name }

// String implements fmt.Stringer.
func (e *Engine) String() string {
	mode := "literal"
	if e.tr != nil {
		mode = e.tr.Name()
	}
	return fmt.Sprintf("correct.Engine(%s, %s, %d keys)", e.name, mode, e.dict.Len())
}
