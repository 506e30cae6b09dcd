package textutil

import (
	"math"
	"unicode"
)

const (
	cjkWeight   = 1.5
	wordWeight  = 1.3
	otherWeight = 0.5
)

// EstimateTokens approximates the token count of text without a tokenizer:
// CJK characters weigh 1.5, runs of ASCII letters weigh 1.3 per run, and every
// other non-space character weighs 0.5. The sum is rounded up.
func EstimateTokens(text string) int {
	var cjk, words, other int
	inWord := false
	for _, r := range text {
		switch {
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			if !inWord {
				words++
				inWord = true
			}
			continue
		case IsCJK(r):
			cjk++
		case unicode.IsSpace(r):
		default:
			other++
		}
		inWord = false
	}
	total := float64(cjk)*cjkWeight + float64(words)*wordWeight + float64(other)*otherWeight
	return int(math.Ceil(total))
}
