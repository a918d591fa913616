// Package translit converts text into phonetic token sequences so that
// near-homophone spellings of a name produce the same match key.
//
// A [Transliterator] returns one [Token] per word unit together with the
// unit's byte span in the input, so callers can map a run of tokens back to
// the original text without re-parsing a delimited string.
package translit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransliteration is matched by every *Error.
	ErrTransliteration = errors.New("transliteration failed")
	// ErrDelimiterCollision reports a token containing the key delimiter.
	ErrDelimiterCollision = errors.New("token contains delimiter")
	// ErrInvalidUTF8 reports malformed input text.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// Error is returned when a transliterator cannot process its input.
type Error struct {
	Name  string
	Input string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transliterate %s %q: %v", e.Name, e.Input, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransliteration) hold for any Error.
func (e *Error) Is(target error) bool { return target == ErrTransliteration }

// Token is a phonetic rendering of one word unit of the input.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"` // byte offset in the input, inclusive
	End   int    `json:"end"`   // byte offset in the input, exclusive
}

// Transliterator maps text to a token sequence.
//
// Implementations must be safe for concurrent use and must emit tokens in
// input order with non-overlapping spans.
type Transliterator interface {
	Name() string
	Transliterate(text string) ([]Token, error)
}

// Join renders tokens as a delimiter-separated string.
func Join(tokens []Token, delim string) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteString(delim)
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// CheckDelimiter returns an *Error when any token contains delim.
func CheckDelimiter(name string, tokens []Token, delim string) error {
	for _, t := range tokens {
		if strings.Contains(t.Text, delim) {
			return &Error{Name: name, Input: t.Text, Err: ErrDelimiterCollision}
		}
	}
	return nil
}

// WordSeparated reports whether t finds word units through whitespace, in
// which case input text must keep its spaces through normalization.
func WordSeparated(t Transliterator) bool {
	ws, ok := t.(interface{ WordSeparated() bool })
	return ok && ws.WordSeparated()
}

// Get returns the transliterator registered under name.
func Get(name string) (Transliterator, error) {
	switch name {
	case "pinyin":
		return NewPinyin(), nil
	case "metaphone":
		return NewMetaphone(), nil
	default:
		return nil, fmt.Errorf("unknown transliterator %q", name)
	}
}
