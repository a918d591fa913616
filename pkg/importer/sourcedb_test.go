package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeAdapter struct {
	id, dictID, desc, url, license string
}

func (f *fakeAdapter) ID() string          { return f.id }
func (f *fakeAdapter) DictID() string      { return f.dictID }
func (f *fakeAdapter) Description() string { return f.desc }
func (f *fakeAdapter) DefaultURL() string  { return f.url }
func (f *fakeAdapter) License() string     { return f.license }
func (f *fakeAdapter) Import(context.Context, string, string) (int, error) {
	return 0, nil
}

func tempSourceDB(t *testing.T) *SourceDB {
	t.Helper()
	sdb, err := OpenSourceDB(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return sdb
}

func seeded(t *testing.T, adapters ...Adapter) *SourceDB {
	t.Helper()
	sdb := tempSourceDB(t)
	if err := sdb.Seed(adapters); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return sdb
}

var banksSource = &fakeAdapter{"banks-zh-tsv", "banks-zh", "Chinese banks", "https://example.org/banks.tsv", "CC0"}

func TestOpenSourceDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.db")
	sdb, err := OpenSourceDB(path)
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	defer sdb.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	sources, err := sdb.ListSources()
	if err != nil || len(sources) != 0 {
		t.Fatalf("ListSources = %v, %v; want empty", sources, err)
	}
}

func TestSeed_KeepsOverrides(t *testing.T) {
	sdb := seeded(t, banksSource)

	if err := sdb.SetURL("banks-zh-tsv", "https://mirror.example.org/banks.tsv"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}
	moved := *banksSource
	moved.url = "https://example.org/v2/banks.tsv"
	if err := sdb.Seed([]Adapter{&moved}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	url, err := sdb.GetURL("banks-zh-tsv")
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if url != "https://mirror.example.org/banks.tsv" {
		t.Errorf("GetURL = %q, want the override", url)
	}
}

func TestSourceDB_UnknownSource(t *testing.T) {
	sdb := seeded(t, banksSource)

	checks := map[string]error{
		"GetURL":       func() error { _, err := sdb.GetURL("nope"); return err }(),
		"SetURL":       sdb.SetURL("nope", "https://example.org"),
		"UpdateCheck":  sdb.UpdateCheck("nope", 200, ""),
		"RecordImport": sdb.RecordImport("nope", 1),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrUnknownSource) {
			t.Errorf("%s: err = %v, want ErrUnknownSource", name, err)
		}
	}
}

func TestUpdateCheck(t *testing.T) {
	sdb := seeded(t, banksSource)

	if err := sdb.UpdateCheck("banks-zh-tsv", 200, ""); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	src, err := sdb.Get("banks-zh-tsv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if src.LastStatus != 200 || src.LastError != "" || src.LastCheck.IsZero() {
		t.Errorf("after ok check: %+v", src)
	}

	if err := sdb.UpdateCheck("banks-zh-tsv", 404, "not found"); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	src, _ = sdb.Get("banks-zh-tsv")
	if src.LastStatus != 404 || src.LastError != "not found" {
		t.Errorf("after failed check: status %d, error %q", src.LastStatus, src.LastError)
	}
}

func TestRecordImportAndStale(t *testing.T) {
	sdb := seeded(t,
		banksSource,
		&fakeAdapter{"brands-en-tsv", "brands-en", "brands", "https://example.org/brands.tsv", "MIT"},
	)

	src, _ := sdb.Get("banks-zh-tsv")
	if src.Imported() {
		t.Fatal("fresh source reported as imported")
	}
	if err := sdb.RecordImport("banks-zh-tsv", 42); err != nil {
		t.Fatalf("RecordImport: %v", err)
	}
	src, _ = sdb.Get("banks-zh-tsv")
	if !src.Imported() || src.LastRecords != 42 {
		t.Errorf("after import: %+v", src)
	}

	stale, err := sdb.Stale(time.Hour)
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if len(stale) != 1 || stale[0].AdapterID != "brands-en-tsv" {
		t.Errorf("Stale(1h) = %v, want only brands-en-tsv", ids(stale))
	}

	stale, _ = sdb.Stale(-time.Hour)
	if len(stale) != 2 {
		t.Errorf("Stale(-1h) = %v, want both sources", ids(stale))
	}
}

func TestListSources_Order(t *testing.T) {
	sdb := seeded(t,
		&fakeAdapter{"z-last", "d1", "desc1", "https://example.org/z", "CC0"},
		&fakeAdapter{"a-first", "d2", "desc2", "https://example.org/a", "MIT"},
	)
	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if got := ids(sources); len(got) != 2 || got[0] != "a-first" {
		t.Errorf("ListSources = %v", got)
	}
}

func ids(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.AdapterID
	}
	return out
}
