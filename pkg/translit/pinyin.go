package translit

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-pinyin"
)

// Pinyin renders each Han character as its toneless pinyin reading. Other
// runes are kept as their lower-cased literal; whitespace produces no token.
// Every token covers exactly one rune of the input.
type Pinyin struct {
	args pinyin.Args
}

// NewPinyin returns a Pinyin transliterator using the first (most common)
// reading of heteronyms.
func NewPinyin() *Pinyin {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	args.Heteronym = false
	return &Pinyin{args: args}
}

func (p *Pinyin) Name() string { return "pinyin" }

func (p *Pinyin) Transliterate(text string) ([]Token, error) {
	if !utf8.ValidString(text) {
		return nil, &Error{Name: p.Name(), Input: text, Err: ErrInvalidUTF8}
	}

	tokens := make([]Token, 0, utf8.RuneCountInString(text))
	for i, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		tokens = append(tokens, Token{Text: p.reading(r), Start: i, End: end})
	}
	return tokens, nil
}

func (p *Pinyin) reading(r rune) string {
	if unicode.Is(unicode.Han, r) {
		if py := pinyin.LazyPinyin(string(r), p.args); len(py) > 0 && py[0] != "" {
			return py[0]
		}
	}
	return strings.ToLower(string(r))
}
