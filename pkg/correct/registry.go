package correct

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hazyhaar/entitycorrect/pkg/dict"
	"github.com/hazyhaar/entitycorrect/pkg/translit"
)

// Registry holds one compiled engine per dictionary directory and serves
// correction queries across them.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	dictsDir string
	opts     []Option
}

type entry struct {
	manifest *dict.Manifest
	engine   *Engine
}

// NewRegistry creates an empty registry for dictsDir. opts are applied to
// every engine it builds, before the per-dictionary settings.
func NewRegistry(dictsDir string, opts ...Option) *Registry {
	return &Registry{
		entries:  make(map[string]*entry),
		dictsDir: dictsDir,
		opts:     opts,
	}
}

// Load scans the dicts directory and compiles every dictionary. The loaded
// set is swapped in only if all of them compile.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.dictsDir)
	if err != nil {
		return fmt.Errorf("read dicts dir %s: %w", r.dictsDir, err)
	}

	loaded := make(map[string]*entry)
	for _, de := range entries {
		// Staging and download directories start with "." or "_".
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") || strings.HasPrefix(de.Name(), "_") {
			continue
		}
		dir := filepath.Join(r.dictsDir, de.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		e, err := r.loadDir(dir)
		if err != nil {
			return fmt.Errorf("load dictionary %s: %w", de.Name(), err)
		}
		if _, dup := loaded[e.manifest.ID]; dup {
			return fmt.Errorf("load dictionary %s: duplicate id %q", de.Name(), e.manifest.ID)
		}
		loaded[e.manifest.ID] = e
	}

	r.mu.Lock()
	r.entries = loaded
	r.mu.Unlock()
	return nil
}

// Reload reloads all dictionaries from disk (hot reload).
func (r *Registry) Reload() error {
	return r.Load()
}

func (r *Registry) loadDir(dir string) (*entry, error) {
	m, records, err := dict.LoadRecords(dir)
	if err != nil {
		return nil, err
	}
	opts, err := r.engineOptions(m)
	if err != nil {
		return nil, err
	}
	eng, err := New(records, opts...)
	if err != nil {
		return nil, err
	}
	return &entry{manifest: m, engine: eng}, nil
}

// LoadEngine compiles the dictionary in dir using its manifest settings.
func LoadEngine(dir string, opts ...Option) (*Engine, *dict.Manifest, error) {
	r := &Registry{opts: opts}
	e, err := r.loadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	return e.engine, e.manifest, nil
}

func (r *Registry) engineOptions(m *dict.Manifest) ([]Option, error) {
	opts := append([]Option{}, r.opts...)
	opts = append(opts,
		WithName(m.ID),
		WithNormalizer(dict.GetNormalizer(m.Format.Normalize)),
	)
	if m.Phonetic.Enabled {
		t, err := translit.Get(m.Phonetic.Transliterator)
		if err != nil {
			return nil, &dict.LoadError{Reason: "manifest " + m.ID, Err: err}
		}
		opts = append(opts, WithTransliterator(t), WithDelimiter(m.Phonetic.Delimiter))
	}
	return opts, nil
}

// CorrectOptions are optional filters selecting which dictionaries apply.
type CorrectOptions struct {
	Dicts       []string
	Languages   []string
	EntityTypes []string
}

// DictRun is the contribution of one dictionary to a chained correction.
// Match offsets refer to the text that dictionary received.
type DictRun struct {
	DictID  string  `json:"dict_id"`
	Input   string  `json:"input"`
	Matches []Match `json:"matches"`
}

// CorrectResult is the response for a correction across dictionaries.
type CorrectResult struct {
	Text       string    `json:"text"`
	Corrected  string    `json:"corrected"`
	Pairs      []Pair    `json:"pairs"`
	Canonicals []string  `json:"canonicals"`
	Applied    []DictRun `json:"applied"`
}

// Correct applies every selected dictionary in sorted ID order, each one
// receiving the previous one's corrected text. Pairs and canonical names are
// merged in first-seen order.
func (r *Registry) Correct(text string, opts *CorrectOptions) (*CorrectResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := &CorrectResult{
		Text:       text,
		Corrected:  text,
		Pairs:      []Pair{},
		Canonicals: []string{},
		Applied:    []DictRun{},
	}
	seenPair := make(map[Pair]struct{})
	seenCanon := make(map[string]struct{})

	for _, id := range r.sortedIDs() {
		e := r.entries[id]
		if !selected(e.manifest, opts) {
			continue
		}
		res, err := e.engine.Run(result.Corrected)
		if err != nil {
			return nil, fmt.Errorf("dict %s: %w", id, err)
		}
		result.Corrected = res.Corrected
		result.Applied = append(result.Applied, DictRun{DictID: id, Input: res.Text, Matches: res.Matches})
		for _, p := range res.Pairs {
			if _, dup := seenPair[p]; !dup {
				seenPair[p] = struct{}{}
				result.Pairs = append(result.Pairs, p)
			}
		}
		for _, c := range res.Canonicals {
			if _, dup := seenCanon[c]; !dup {
				seenCanon[c] = struct{}{}
				result.Canonicals = append(result.Canonicals, c)
			}
		}
	}
	return result, nil
}

func selected(m *dict.Manifest, opts *CorrectOptions) bool {
	if opts == nil {
		return true
	}
	if len(opts.Dicts) > 0 && !contains(opts.Dicts, m.ID) {
		return false
	}
	if len(opts.Languages) > 0 && !contains(opts.Languages, m.Language) {
		return false
	}
	if len(opts.EntityTypes) > 0 && !contains(opts.EntityTypes, m.EntityType) {
		return false
	}
	return true
}

func (r *Registry) sortedIDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DictInfo is the public metadata for a loaded dictionary.
type DictInfo struct {
	ID         string `json:"id"`
	Version    string `json:"version"`
	Language   string `json:"language"`
	EntityType string `json:"entity_type"`
	Source     string `json:"source"`
	SourceURL  string `json:"source_url,omitempty"`
	License    string `json:"license"`
	Stats      Stats  `json:"stats"`
}

// ListDicts returns metadata for all loaded dictionaries, sorted by ID.
func (r *Registry) ListDicts() []DictInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]DictInfo, 0, len(r.entries))
	for _, id := range r.sortedIDs() {
		e := r.entries[id]
		infos = append(infos, DictInfo{
			ID:         e.manifest.ID,
			Version:    e.manifest.Version,
			Language:   e.manifest.Language,
			EntityType: e.manifest.EntityType,
			Source:     e.manifest.Source,
			SourceURL:  e.manifest.SourceURL,
			License:    e.manifest.License,
			Stats:      e.engine.Stats(),
		})
	}
	return infos
}

// DictCount returns the number of loaded dictionaries.
func (r *Registry) DictCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// TotalKeys returns the number of match keys across all dictionaries.
func (r *Registry) TotalKeys() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, e := range r.entries {
		total += e.engine.Stats().Keys
	}
	return total
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
