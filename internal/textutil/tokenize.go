// Package textutil holds the tokenizers shared by query analysis, fusion and citation checks.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var wordSeparator = regexp.MustCompile(`[\s\p{P}\p{S}]+`)

// Normalize folds full-width forms with NFKC and lowercases the result.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// SplitWords splits normalized text on whitespace, punctuation and symbols.
// Empty pieces are dropped; order is preserved.
func SplitWords(text string) []string {
	if text == "" {
		return nil
	}
	parts := wordSeparator.Split(Normalize(text), -1)
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	if len(words) == 0 {
		return nil
	}
	return words
}

// Tokenize lowercases text and keeps runs of letters and digits.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range Normalize(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// IsCJK reports whether r is a Han, Hiragana, Katakana or Hangul character.
func IsCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// OverlapTokens returns the token set used for citation overlap checks.
// Latin words are kept whole, CJK runs become character bigrams, and
// tokens shorter than two characters are dropped.
func OverlapTokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		for _, piece := range splitScripts(token) {
			runes := []rune(piece)
			if IsCJK(runes[0]) {
				for i := 0; i+1 < len(runes); i++ {
					set[string(runes[i:i+2])] = struct{}{}
				}
				continue
			}
			if len(runes) >= 2 {
				set[piece] = struct{}{}
			}
		}
	}
	return set
}

// splitScripts breaks a token where it switches between CJK and non-CJK characters.
func splitScripts(token string) []string {
	var pieces []string
	runes := []rune(token)
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || IsCJK(runes[i]) != IsCJK(runes[start]) {
			pieces = append(pieces, string(runes[start:i]))
			start = i
		}
	}
	return pieces
}

// CharNGrams returns the set of rune n-grams of text. Text shorter than n
// yields a single gram holding the whole text; empty text yields an empty set.
func CharNGrams(text string, n int) map[string]struct{} {
	runes := []rune(text)
	set := make(map[string]struct{})
	if len(runes) == 0 {
		return set
	}
	if len(runes) < n {
		set[text] = struct{}{}
		return set
	}
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var inter int
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
