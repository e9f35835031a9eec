package textsplit

import (
	"math"
	"strings"
)

// tokensPerWord approximates the subword-token to word ratio of common
// embedding tokenizers (1 token ~= 0.75 words).
const tokensPerWord = 1.33

// EstimateTokens approximates the token count of text from its word count.
// It is a sizing heuristic, not an exact count, and is monotonic in input
// length so the chunker's boundary logic terminates.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * tokensPerWord))
}

// overlapWordCount converts an overlap size in tokens back into whole words.
func overlapWordCount(overlapTokens int) int {
	if overlapTokens <= 0 {
		return 0
	}
	return int(math.Ceil(float64(overlapTokens) / tokensPerWord))
}
