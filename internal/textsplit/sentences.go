// Package textsplit implements sentence splitting, token estimation and
// overlapping semantic chunking for the ingestion pipeline.
package textsplit

import "strings"

// closers are quote and bracket characters that may trail sentence-ending
// punctuation and belong to the sentence they close.
const closers = ")]'\"`’”"

// SplitSentences splits text into sentence-like units on '.', '!' or '?'
// followed by whitespace, retaining the punctuation and any immediately
// following closing quotes or brackets. Residual text with no terminator
// becomes its own unit. No characters are discarded: joining the result
// with single spaces reproduces the input modulo whitespace normalization.
func SplitSentences(text string) []string {
	var sentences []string
	var buf strings.Builder

	flush := func() {
		s := strings.TrimSpace(buf.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		buf.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		buf.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Absorb consecutive terminators ("..." or "?!") and trailing closers.
		j := i + 1
		for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?') {
			buf.WriteRune(runes[j])
			j++
		}
		for j < len(runes) && strings.ContainsRune(closers, runes[j]) {
			buf.WriteRune(runes[j])
			j++
		}
		i = j - 1

		// Only break the sentence when whitespace (or end of input) follows.
		if j >= len(runes) || isSpace(runes[j]) {
			flush()
		}
	}
	flush()

	return sentences
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
