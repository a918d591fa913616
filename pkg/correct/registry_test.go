package correct

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/entitycorrect/pkg/dict"
	"github.com/hazyhaar/entitycorrect/pkg/translit"
)

func writeDict(t *testing.T, root, id, manifest, tsv string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "synonyms.tsv"), []byte(tsv), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func setupRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()

	// Chinese bank names, matched on pinyin.
	writeDict(t, dir, "banks-zh", `id: banks-zh
version: "1.0"
language: zh
entity_type: bank
source: test
phonetic:
  enabled: true
  transliterator: pinyin
`, "招商银行\t招行\n农业银行\t农行\n")

	// English brand names, matched literally.
	writeDict(t, dir, "brands-en", `id: brands-en
version: "1.0"
language: en
entity_type: brand
source: test
format:
  normalize: collapse_whitespace
`, "Coca-Cola\tcoke\tcoca cola\n")

	reg := NewRegistry(dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg, dir
}

func TestRegistryLoad(t *testing.T) {
	reg, _ := setupRegistry(t)

	if reg.DictCount() != 2 {
		t.Errorf("DictCount = %d, want 2", reg.DictCount())
	}
	// banks-zh: 4 keys; brands-en: Coca-Cola, coke, coca cola.
	if reg.TotalKeys() != 7 {
		t.Errorf("TotalKeys = %d, want 7", reg.TotalKeys())
	}
}

func TestCorrect_Chained(t *testing.T) {
	reg, _ := setupRegistry(t)

	result, err := reg.Correct("找行coke", nil)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if result.Corrected != "招商银行Coca-Cola" {
		t.Errorf("Corrected = %q, want 招商银行Coca-Cola", result.Corrected)
	}
	if strings.Join(result.Canonicals, ",") != "招商银行,Coca-Cola" {
		t.Errorf("Canonicals = %v", result.Canonicals)
	}
	if len(result.Applied) != 2 || result.Applied[0].DictID != "banks-zh" || result.Applied[1].DictID != "brands-en" {
		t.Errorf("Applied = %+v", result.Applied)
	}
	if result.Applied[1].Input != "招商银行coke" {
		t.Errorf("brands-en input = %q", result.Applied[1].Input)
	}
}

func TestCorrect_NoMatch(t *testing.T) {
	reg, _ := setupRegistry(t)

	result, err := reg.Correct("天气很好", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Corrected != "天气很好" || len(result.Pairs) != 0 || len(result.Canonicals) != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestCorrect_Filters(t *testing.T) {
	reg, _ := setupRegistry(t)

	tests := []struct {
		name    string
		opts    *CorrectOptions
		applied []string
	}{
		{"dict", &CorrectOptions{Dicts: []string{"brands-en"}}, []string{"brands-en"}},
		{"language", &CorrectOptions{Languages: []string{"zh"}}, []string{"banks-zh"}},
		{"entity type", &CorrectOptions{EntityTypes: []string{"brand", "bank"}}, []string{"banks-zh", "brands-en"}},
		{"no result", &CorrectOptions{Languages: []string{"de"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.Correct("农行 coke", tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, a := range result.Applied {
				got = append(got, a.DictID)
			}
			if strings.Join(got, ",") != strings.Join(tt.applied, ",") {
				t.Errorf("applied = %v, want %v", got, tt.applied)
			}
		})
	}
}

func TestCorrect_Deterministic(t *testing.T) {
	reg, _ := setupRegistry(t)

	for i := 0; i < 20; i++ {
		result, err := reg.Correct("coke农行", nil)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(result.Canonicals, ",") != "农业银行,Coca-Cola" {
			t.Fatalf("iteration %d: Canonicals = %v", i, result.Canonicals)
		}
	}
}

func TestListDicts(t *testing.T) {
	reg, _ := setupRegistry(t)

	infos := reg.ListDicts()
	if len(infos) != 2 {
		t.Fatalf("ListDicts = %d, want 2", len(infos))
	}
	if infos[0].ID != "banks-zh" || infos[1].ID != "brands-en" {
		t.Errorf("order = %s, %s", infos[0].ID, infos[1].ID)
	}
	if !infos[0].Stats.Phonetic || infos[1].Stats.Phonetic {
		t.Errorf("phonetic flags = %v, %v", infos[0].Stats.Phonetic, infos[1].Stats.Phonetic)
	}
}

func TestReload(t *testing.T) {
	reg, dir := setupRegistry(t)

	writeDict(t, dir, "cities-zh", `id: cities-zh
language: zh
entity_type: city
`, "北京市\t北京\n")

	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reg.DictCount() != 3 {
		t.Errorf("after reload: %d dicts, want 3", reg.DictCount())
	}
}

func TestReload_FailureKeepsPrevious(t *testing.T) {
	reg, dir := setupRegistry(t)

	writeDict(t, dir, "broken", `id: broken
phonetic:
  enabled: true
  transliterator: klingon
`, "a\tb\n")

	if err := reg.Reload(); !errors.Is(err, dict.ErrDictionaryLoad) {
		t.Fatalf("Reload err = %v, want ErrDictionaryLoad", err)
	}
	if reg.DictCount() != 2 {
		t.Errorf("DictCount = %d, want previous 2", reg.DictCount())
	}
}

func TestLoad_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeDict(t, dir, "a", "id: same\n", "x\n")
	writeDict(t, dir, "b", "id: same\n", "y\n")

	if err := NewRegistry(dir).Load(); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestEmptyRegistry(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	if err := reg.Load(); err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if reg.DictCount() != 0 || reg.TotalKeys() != 0 {
		t.Errorf("DictCount=%d TotalKeys=%d", reg.DictCount(), reg.TotalKeys())
	}
	result, err := reg.Correct("anything", nil)
	if err != nil || result.Corrected != "anything" {
		t.Errorf("Correct = %+v, %v", result, err)
	}
}

func TestLoadEngine(t *testing.T) {
	dir := writeDict(t, t.TempDir(), "banks", `id: banks
phonetic:
  enabled: true
`, "招商银行\t招行\n")

	e, m, err := LoadEngine(dir)
	if err != nil {
		t.Fatalf("LoadEngine: %v", err)
	}
	if m.Phonetic.Transliterator != "pinyin" || m.Phonetic.Delimiter != dict.DefaultDelimiter {
		t.Errorf("manifest defaults = %+v", m.Phonetic)
	}
	res, err := e.Run("找行")
	if err != nil {
		t.Fatal(err)
	}
	tokens, _ := translit.NewPinyin().Transliterate("招行")
	if res.Corrected != "招商银行" || res.Pairs[0].Variant != translit.Join(tokens, "@@") {
		t.Errorf("result = %+v", res)
	}
}

func TestRegistry_MetaphoneDefaultNormalize(t *testing.T) {
	dir := t.TempDir()
	writeDict(t, dir, "people-en", `id: people-en
language: en
entity_type: person
phonetic:
  enabled: true
  transliterator: metaphone
`, "John Smith\tJon Smyth\n")

	reg := NewRegistry(dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	result, err := reg.Correct("call jon smyth today", nil)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if result.Corrected != "call John Smith today" {
		t.Errorf("Corrected = %q, want %q", result.Corrected, "call John Smith today")
	}
}

func TestRegistry_MetaphoneRejectsStrip(t *testing.T) {
	dir := t.TempDir()
	writeDict(t, dir, "people-en", `id: people-en
format:
  normalize: strip_whitespace
phonetic:
  enabled: true
  transliterator: metaphone
`, "John Smith\tJon Smyth\n")

	if err := NewRegistry(dir).Load(); err == nil {
		t.Fatal("expected error for metaphone with strip_whitespace")
	}
}
