// CLAUDE:SUMMARY Manifest YAML schema describing a synonym dictionary, its source format and phonetic matching mode.
package dict

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultDelimiter separates phonetic tokens in a match key.
const DefaultDelimiter = "@@"

// Manifest describes a synonym dictionary: its source, format, and how to match it.
type Manifest struct {
	ID         string       `yaml:"id" json:"id"`
	Version    string       `yaml:"version" json:"version"`
	Language   string       `yaml:"language" json:"language"`
	EntityType string       `yaml:"entity_type" json:"entity_type"`
	Source     string       `yaml:"source" json:"source"`
	SourceURL  string       `yaml:"source_url" json:"source_url,omitempty"`
	License    string       `yaml:"license" json:"license"`
	DataFile   string       `yaml:"data_file" json:"data_file"`
	Format     FormatSpec   `yaml:"format" json:"-"`
	Phonetic   PhoneticSpec `yaml:"phonetic" json:"phonetic"`
}

// FormatSpec describes the data file layout.
type FormatSpec struct {
	Encoding  string `yaml:"encoding"`
	Normalize string `yaml:"normalize"`
}

// PhoneticSpec enables matching on a transliteration of the text.
type PhoneticSpec struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Transliterator string `yaml:"transliterator" json:"transliterator,omitempty"`
	Delimiter      string `yaml:"delimiter" json:"delimiter,omitempty"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.DataFile == "" {
		m.DataFile = "synonyms.tsv"
	}
	if m.Phonetic.Enabled {
		if m.Phonetic.Transliterator == "" {
			m.Phonetic.Transliterator = "pinyin"
		}
		if m.Phonetic.Delimiter == "" {
			m.Phonetic.Delimiter = DefaultDelimiter
		}
		// Metaphone tokenizes on spaces: stripping them would fuse every
		// word into one.
		if m.Phonetic.Transliterator == "metaphone" {
			switch m.Format.Normalize {
			case "":
				m.Format.Normalize = "collapse_whitespace"
			case "strip_whitespace":
				return nil, fmt.Errorf("manifest %s: metaphone matching needs whitespace, normalize %q removes it", path, m.Format.Normalize)
			}
		}
	}
	return &m, nil
}

// WriteManifest writes m as YAML to dir/manifest.yaml.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}
