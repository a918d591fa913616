package translit

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Metaphone renders each word (a maximal run of letters and digits) as its
// primary Double Metaphone code, so "Jon Smyth" and "John Smith" share a key.
// Punctuation and whitespace produce no token. Words without a code (digits,
// lone vowels) fall back to their lower-cased spelling.
type Metaphone struct{}

// NewMetaphone returns a Double Metaphone transliterator.
func NewMetaphone() *Metaphone { return &Metaphone{} }

func (m *Metaphone) Name() string { return "metaphone" }

// WordSeparated reports that tokens are delimited by the spaces of the input.
func (m *Metaphone) WordSeparated() bool { return true }

func (m *Metaphone) Transliterate(text string) ([]Token, error) {
	if !utf8.ValidString(text) {
		return nil, &Error{Name: m.Name(), Input: text, Err: ErrInvalidUTF8}
	}

	var tokens []Token
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := strings.ToLower(text[start:end])
		code, _ := matchr.DoubleMetaphone(word)
		if code == "" {
			code = word
		}
		tokens = append(tokens, Token{Text: code, Start: start, End: end})
		start = -1
	}

	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens, nil
}
