package textsplit

import "strings"

// Options controls chunk sizing in estimated tokens.
type Options struct {
	TargetTokens  int
	OverlapTokens int
	MinTokens     int
}

// DefaultOptions provides sane defaults for policy documents.
func DefaultOptions() Options {
	return Options{
		TargetTokens:  600,
		OverlapTokens: 100,
		MinTokens:     200,
	}
}

// Piece is one chunk produced by Chunk, annotated with its position in the
// full sequence once the sequence is known.
type Piece struct {
	Content     string
	Index       int
	TotalChunks int
	TokenCount  int
}

// Chunk accumulates sentences into overlapping chunks bounded by
// opts.TargetTokens. Each new chunk is seeded with the trailing words of
// the previous one, sized to roughly opts.OverlapTokens. A trailing buffer
// below opts.MinTokens is merged into the previous chunk instead of being
// emitted as a low-signal fragment; when it is the only content, it is
// emitted anyway. A single sentence larger than the target is emitted as
// its own chunk since it cannot be split further.
//
// Chunk never filters by a hard per-chunk minimum; excluding undersized
// chunks from ingestion is the caller's policy, applied after chunking.
// Identical input and options always produce an identical sequence.
func Chunk(text string, opts Options) []Piece {
	if opts.TargetTokens <= 0 {
		opts = DefaultOptions()
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var pieces []Piece
	buf := ""

	for _, sentence := range sentences {
		if buf == "" {
			buf = sentence
			continue
		}

		candidate := buf + " " + sentence
		if EstimateTokens(candidate) > opts.TargetTokens {
			pieces = append(pieces, Piece{
				Content:    buf,
				TokenCount: EstimateTokens(buf),
			})
			buf = seedOverlap(buf, opts.OverlapTokens, sentence)
		} else {
			buf = candidate
		}
	}

	if buf != "" {
		tailTokens := EstimateTokens(buf)
		if tailTokens >= opts.MinTokens || len(pieces) == 0 {
			pieces = append(pieces, Piece{Content: buf, TokenCount: tailTokens})
		} else {
			// Merge the undersized tail into the previous chunk.
			last := &pieces[len(pieces)-1]
			last.Content = last.Content + " " + buf
			last.TokenCount = EstimateTokens(last.Content)
		}
	}

	for i := range pieces {
		pieces[i].Index = i
		pieces[i].TotalChunks = len(pieces)
	}

	return pieces
}

// seedOverlap starts a new buffer with the trailing words of the closed
// chunk whose estimated token count is roughly overlapTokens, followed by
// the sentence that did not fit.
func seedOverlap(closed string, overlapTokens int, sentence string) string {
	words := strings.Fields(closed)
	n := overlapWordCount(overlapTokens)
	if n <= 0 || n >= len(words) {
		if n <= 0 {
			return sentence
		}
		return closed + " " + sentence
	}
	overlap := strings.Join(words[len(words)-n:], " ")
	return overlap + " " + sentence
}
