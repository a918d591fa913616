// CLAUDE:SUMMARY Text normalization modes (strip whitespace, collapse whitespace, none) applied to input text and variants before matching.
package dict

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms text before matching.
type Normalizer func(string) string

// NormalizeStripWhitespace composes to NFC and removes every whitespace rune
// (e.g. "去 农行\t还是 招行" -> "去农行还是招行"). Suited to scripts written
// without spaces.
func NormalizeStripWhitespace(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeCollapseWhitespace composes to NFC, trims, and folds whitespace
// runs into a single space.
func NormalizeCollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeNone returns the text unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is strip_whitespace.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "strip_whitespace":
		return NormalizeStripWhitespace
	case "collapse_whitespace":
		return NormalizeCollapseWhitespace
	case "none":
		return NormalizeNone
	default:
		return NormalizeStripWhitespace
	}
}
