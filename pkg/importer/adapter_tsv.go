// CLAUDE:SUMMARY Config-driven import adapter for tab-separated synonym lists served over HTTP, plain or zipped, in any WHATWG encoding.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/dict"
)

// SourceConfig declares a TSV synonym source in config.yaml.
type SourceConfig struct {
	ID          string            `yaml:"id"`
	DictID      string            `yaml:"dict_id"`
	Description string            `yaml:"description"`
	URL         string            `yaml:"url"`
	License     string            `yaml:"license"`
	Language    string            `yaml:"language"`
	EntityType  string            `yaml:"entity_type"`
	Encoding    string            `yaml:"encoding"`    // source encoding, default UTF-8
	Member      string            `yaml:"member"`      // file inside a zip archive
	Normalize   string            `yaml:"normalize"`   // strip_whitespace | collapse_whitespace | none
	Phonetic    dict.PhoneticSpec `yaml:"phonetic"`
}

// NewTSVAdapter returns an adapter for a configured TSV source.
func NewTSVAdapter(cfg SourceConfig) (Adapter, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("source: missing id")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("source %s: missing url", cfg.ID)
	}
	if cfg.DictID == "" {
		cfg.DictID = cfg.ID
	}
	if cfg.Description == "" {
		cfg.Description = "TSV synonyms from " + cfg.URL
	}
	return &tsvAdapter{cfg: cfg}, nil
}

// RegisterSources registers one TSV adapter per configured source.
func RegisterSources(sources []SourceConfig) error {
	for _, s := range sources {
		a, err := NewTSVAdapter(s)
		if err != nil {
			return err
		}
		Register(a)
	}
	return nil
}

type tsvAdapter struct {
	cfg SourceConfig
}

func (a *tsvAdapter) ID() string          { return a.cfg.ID }
func (a *tsvAdapter) DictID() string      { return a.cfg.DictID }
func (a *tsvAdapter) Description() string { return a.cfg.Description }
func (a *tsvAdapter) DefaultURL() string  { return a.cfg.URL }
func (a *tsvAdapter) License() string     { return a.cfg.License }

func (a *tsvAdapter) Import(ctx context.Context, sourceURL, outputDir string) (int, error) {
	dlDir := filepath.Join(outputDir, "_download", a.cfg.ID)
	if err := ensureDir(dlDir); err != nil {
		return 0, err
	}
	defer os.RemoveAll(dlDir)

	name := filepath.Base(strings.SplitN(sourceURL, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = "source.tsv"
	}
	dlPath := filepath.Join(dlDir, name)
	slog.Info("downloading source", "adapter", a.cfg.ID, "url", sourceURL)
	if err := downloadFile(ctx, sourceURL, dlPath); err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}

	dataPath := dlPath
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		files, err := unzipFile(dlPath, dlDir)
		if err != nil {
			return 0, fmt.Errorf("unzip: %w", err)
		}
		if dataPath, err = pickDataFile(files, a.cfg.Member); err != nil {
			return 0, err
		}
	}

	records, err := dict.LoadTSV(dataPath, a.cfg.Encoding)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("source %s: no records", a.cfg.ID)
	}

	m := &dict.Manifest{
		ID:         a.cfg.DictID,
		Version:    time.Now().UTC().Format("2006-01-02"),
		Language:   a.cfg.Language,
		EntityType: a.cfg.EntityType,
		Source:     a.cfg.Description,
		SourceURL:  sourceURL,
		License:    a.cfg.License,
		Format:     dict.FormatSpec{Normalize: a.cfg.Normalize},
		Phonetic:   a.cfg.Phonetic,
	}
	if err := writeDict(outputDir, m, records); err != nil {
		return 0, err
	}
	slog.Info("source imported", "adapter", a.cfg.ID, "dict", a.cfg.DictID, "records", len(records))
	return len(records), nil
}
