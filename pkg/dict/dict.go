package dict

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// KeyFunc turns a variant into the match key indexed by the automaton.
type KeyFunc func(variant string) (string, error)

// Dictionary maps match keys to canonical names. It is immutable once built.
type Dictionary struct {
	canonical  map[string]string
	keys       []string
	records    int
	overwrites int
}

// Build compiles records into a Dictionary. Each canonical name is also
// registered as a variant of itself. When two records produce the same key,
// the later record wins; the number of such overwrites is kept in
// Overwrites and logged.
func Build(records []Record, keyFn KeyFunc) (*Dictionary, error) {
	d := &Dictionary{
		canonical: make(map[string]string),
		records:   len(records),
	}

	for i, rec := range records {
		if err := validateRecord(i, rec); err != nil {
			return nil, err
		}
		canonical := strings.TrimSpace(rec.Canonical)

		variants := make([]string, 0, len(rec.Variants)+1)
		variants = append(variants, canonical)
		variants = append(variants, rec.Variants...)

		for _, v := range variants {
			if strings.TrimSpace(v) == "" {
				continue
			}
			key, err := keyFn(v)
			if err != nil {
				return nil, &LoadError{Reason: fmt.Sprintf("record %d (%s): key for %q", i, canonical, v), Err: err}
			}
			if key == "" {
				continue
			}
			prev, exists := d.canonical[key]
			switch {
			case !exists:
				d.keys = append(d.keys, key)
			case prev != canonical:
				d.overwrites++
			}
			d.canonical[key] = canonical
		}
	}

	if d.overwrites > 0 {
		slog.Warn("synonym keys overwritten by later records", "overwrites", d.overwrites, "keys", len(d.keys))
	}
	return d, nil
}

// Lookup returns the canonical name registered for key.
func (d *Dictionary) Lookup(key string) (string, bool) {
	c, ok := d.canonical[key]
	return c, ok
}

// Keys returns every match key in first-registration order.
func (d *Dictionary) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of distinct match keys.
func (d *Dictionary) Len() int { return len(d.keys) }

// Records returns the number of records the dictionary was built from.
func (d *Dictionary) Records() int { return d.records }

// Overwrites returns how many keys were re-pointed to a different canonical
// name by a later record.
func (d *Dictionary) Overwrites() int { return d.overwrites }

// LoadRecords reads a dictionary directory: manifest.yaml plus data.gob or
// the TSV data file named by the manifest.
func LoadRecords(dir string) (*Manifest, []Record, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, nil, err
	}

	// Gob takes priority over TSV.
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		records, err := loadGob(gobPath)
		if err != nil {
			return nil, nil, fmt.Errorf("dict %s: %w", manifest.ID, err)
		}
		return manifest, records, nil
	}

	records, err := LoadTSV(filepath.Join(dir, manifest.DataFile), manifest.Format.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("dict %s: %w", manifest.ID, err)
	}
	return manifest, records, nil
}

// LoadTSV memory-maps the data file and parses it, transcoding non-UTF-8
// encodings declared in the manifest.
func LoadTSV(path, encoding string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Reason: "open data file", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &LoadError{Reason: "stat data file", Err: err}
	}
	if info.Size() == 0 {
		return nil, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, &LoadError{Reason: "mmap data file", Err: err}
	}
	defer m.Unmap()

	var reader io.Reader = bytes.NewReader(m)
	if encoding != "" && !isUTF8(encoding) {
		e, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, &LoadError{Reason: fmt.Sprintf("unsupported encoding %q", encoding), Err: err}
		}
		reader = transform.NewReader(reader, e.NewDecoder())
	}
	return ParseTSV(reader)
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
