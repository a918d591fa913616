package translit

import (
	"errors"
	"testing"
)

func TestPinyin_Homophones(t *testing.T) {
	p := NewPinyin()

	a, err := p.Transliterate("招行")
	if err != nil {
		t.Fatalf("Transliterate(招行): %v", err)
	}
	b, err := p.Transliterate("找行")
	if err != nil {
		t.Fatalf("Transliterate(找行): %v", err)
	}
	if Join(a, "@@") != Join(b, "@@") {
		t.Errorf("Join(招行) = %q, Join(找行) = %q, want equal", Join(a, "@@"), Join(b, "@@"))
	}
	if a[0].Text != "zhao" {
		t.Errorf("token 0 = %q, want zhao", a[0].Text)
	}
}

func TestPinyin_Spans(t *testing.T) {
	p := NewPinyin()
	tokens, err := p.Transliterate("去A 行")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("tokens = %d, want 3 (whitespace yields no token)", len(tokens))
	}

	want := []struct {
		start, end int
	}{
		{0, 3}, // 去
		{3, 4}, // A
		{5, 8}, // 行
	}
	for i, w := range want {
		if tokens[i].Start != w.start || tokens[i].End != w.end {
			t.Errorf("token %d span = [%d,%d), want [%d,%d)", i, tokens[i].Start, tokens[i].End, w.start, w.end)
		}
	}
	if tokens[1].Text != "a" {
		t.Errorf("non-Han token = %q, want lower-cased literal a", tokens[1].Text)
	}
}

func TestPinyin_InvalidUTF8(t *testing.T) {
	_, err := NewPinyin().Transliterate("招\xff行")
	if !errors.Is(err, ErrTransliteration) || !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrTransliteration wrapping ErrInvalidUTF8", err)
	}
}

func TestMetaphone_Homophones(t *testing.T) {
	m := NewMetaphone()

	a, err := m.Transliterate("Jon Smyth")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	b, err := m.Transliterate("john smith")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("tokens = %d, %d, want 2, 2", len(a), len(b))
	}
	if Join(a, "@@") != Join(b, "@@") {
		t.Errorf("Join = %q vs %q, want equal", Join(a, "@@"), Join(b, "@@"))
	}
	if a[1].Start != 4 || a[1].End != 9 {
		t.Errorf("span = [%d,%d), want [4,9)", a[1].Start, a[1].End)
	}
}

func TestMetaphone_DigitsFallBack(t *testing.T) {
	tokens, err := NewMetaphone().Transliterate("route 66")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if len(tokens) != 2 || tokens[1].Text != "66" {
		t.Errorf("tokens = %+v, want digits kept as 66", tokens)
	}
}

func TestJoin(t *testing.T) {
	tokens := []Token{{Text: "zhao"}, {Text: "hang"}}
	if got := Join(tokens, "@@"); got != "zhao@@hang" {
		t.Errorf("Join = %q, want zhao@@hang", got)
	}
	if got := Join(nil, "@@"); got != "" {
		t.Errorf("Join(nil) = %q, want empty", got)
	}
}

func TestCheckDelimiter(t *testing.T) {
	if err := CheckDelimiter("x", []Token{{Text: "ab"}}, "@@"); err != nil {
		t.Errorf("CheckDelimiter: %v", err)
	}
	err := CheckDelimiter("x", []Token{{Text: "a@@b"}}, "@@")
	if !errors.Is(err, ErrDelimiterCollision) {
		t.Errorf("err = %v, want ErrDelimiterCollision", err)
	}
}

func TestGet(t *testing.T) {
	for _, name := range []string{"pinyin", "metaphone"} {
		tr, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if tr.Name() != name {
			t.Errorf("Name = %q, want %q", tr.Name(), name)
		}
	}
	if _, err := Get("soundex"); err == nil {
		t.Error("expected error for unknown transliterator")
	}
}
