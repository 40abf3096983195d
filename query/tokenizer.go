// Package query turns free-text queries into a structured matcher tree
// (§4.3), CJK-aware and prefix/fuzzy/plural aware, grounded directly on
// flapjack's original tokenizer/parser (src/query/parser.rs).
package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// foldCase is Unicode case folding, which handles the casings plain
// ASCII lowercasing misses (dotless i, final sigma). A Caser is stateful
// and not safe for concurrent use, so each call builds its own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// isCJK reports whether r falls in one of the CJK codepoint ranges that are
// tokenized one rune at a time rather than grouped with neighboring runes.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF, // CJK Unified Ideographs
		r >= 0x3400 && r <= 0x4DBF, // CJK Extension A
		r >= 0xF900 && r <= 0xFAFF, // CJK Compatibility Ideographs
		r >= 0x2E80 && r <= 0x2EFF, // CJK Radicals Supplement
		r >= 0x3000 && r <= 0x303F, // CJK Symbols and Punctuation
		r >= 0x3040 && r <= 0x309F, // Hiragana
		r >= 0x30A0 && r <= 0x30FF, // Katakana
		r >= 0x31F0 && r <= 0x31FF, // Katakana Phonetic Extensions
		r >= 0xAC00 && r <= 0xD7AF, // Hangul Syllables
		r >= 0x1100 && r <= 0x11FF, // Hangul Jamo
		r >= 0x20000 && r <= 0x2A6DF, // CJK Extension B
		r >= 0x2A700 && r <= 0x2B73F, // CJK Extension C
		r >= 0x2B740 && r <= 0x2B81F, // CJK Extension D
		r >= 0x2B820 && r <= 0x2CEAF: // CJK Extension E
		return true
	default:
		return false
	}
}

// SplitCJKAware lowercases-free tokenization: CJK codepoints each become
// their own token; runs of other alphanumeric runes form ordinary tokens;
// everything else is a separator.
func SplitCJKAware(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Tokenize lowercases the query, strips a trailing '*', and splits it
// CJK-aware (§4.3). hasTrailingSpace reports whether the raw query ended
// with a space, a distinction the short single-token case relies on.
func Tokenize(rawQuery string) (tokens []string, hasTrailingSpace bool) {
	hasTrailingSpace = strings.HasSuffix(rawQuery, " ")
	text := foldCase(rawQuery)
	text = strings.TrimSuffix(text, "*")
	return SplitCJKAware(text), hasTrailingSpace
}

// ExtractQueryWords is the highlighter's simpler counterpart: lowercased
// whitespace-split words, used as the matched-word vocabulary (§4.5).
func ExtractQueryWords(queryText string) []string {
	fields := strings.Fields(queryText)
	words := make([]string, len(fields))
	for i, f := range fields {
		words[i] = foldCase(f)
	}
	return words
}
