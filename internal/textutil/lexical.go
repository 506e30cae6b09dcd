package textutil

import (
	"strings"
)

// lexicalSaturation controls how fast repeated matches stop adding score.
const lexicalSaturation = 1.2

// LexicalScore is a rank-style relevance of content for a set of normalized
// terms. Each term contributes tf/(tf+k) so repetitions saturate; the mean over
// terms keeps the result in [0,1). Terms are matched as substrings because CJK
// text is not segmented.
func LexicalScore(terms []string, content string) float64 {
	if len(terms) == 0 || content == "" {
		return 0
	}
	normalized := Normalize(content)

	var total float64
	var counted int
	for _, term := range terms {
		if term == "" {
			continue
		}
		counted++
		tf := float64(strings.Count(normalized, term))
		if tf == 0 {
			continue
		}
		total += tf / (tf + lexicalSaturation)
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}
