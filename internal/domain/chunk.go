package domain

import (
	"fmt"
	"time"
)

// PracticeType classifies a chunk as describing an approved or a forbidden practice
type PracticeType string

const (
	PracticeTypeSecure    PracticeType = "secure"
	PracticeTypeForbidden PracticeType = "forbidden"
)

// Severity indicates how serious a violation of the chunk's guidance is
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// LanguageAll marks a chunk as language-agnostic. A stored chunk tagged
// "all" satisfies any specific language filter at search time.
const LanguageAll = "all"

// Chunk is a bounded contiguous span of a source document, the atomic unit
// of embedding and retrieval. Chunks from one document share Source and
// TotalChunks; Index is a dense 0-based sequence within the document.
type Chunk struct {
	ID          string
	Content     string
	Index       int
	TotalChunks int
	TokenCount  int
	Language    string
	Category    string
	Type        PracticeType
	Severity    Severity
	Source      string
	Metadata    map[string]any
}

// EmbeddedChunk is a Chunk plus its embedding vector. It is immutable once
// inserted; corrections are modeled as delete+reinsert. Degraded marks
// vectors produced by the random fallback instead of the provider.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32
	Degraded  bool
	CreatedAt time.Time
}

// ScoredChunk is an ephemeral per-query search result. Score is cosine
// similarity, conceptually in [-1, 1]; higher is more relevant.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalFilter narrows search candidates before ranking. Empty fields
// match everything. A Language filter matches stored chunks tagged with
// the same language or with "all"; requesting "all" disables the
// language constraint entirely.
type RetrievalFilter struct {
	Language string
	Category string
}

// Matches reports whether a stored chunk satisfies the filter.
func (f RetrievalFilter) Matches(c *Chunk) bool {
	if f.Language != "" && f.Language != LanguageAll && c.Language != f.Language && c.Language != LanguageAll {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	return true
}

// ValidateChunk validates a Chunk before embedding or insertion.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.Index < 0 {
		return fmt.Errorf("chunk Index cannot be negative")
	}
	if c.TotalChunks < 1 {
		return fmt.Errorf("chunk TotalChunks must be at least 1")
	}
	if c.Index >= c.TotalChunks {
		return fmt.Errorf("chunk Index %d out of range for TotalChunks %d", c.Index, c.TotalChunks)
	}
	if c.Source == "" {
		return ErrMissingRequiredField
	}
	return nil
}

// ValidateEmbeddedChunk validates an EmbeddedChunk against the expected
// embedding dimension. Wrong-dimension vectors are rejected outright,
// never truncated or padded.
func ValidateEmbeddedChunk(c *EmbeddedChunk, dimensions int) error {
	if c == nil {
		return fmt.Errorf("embedded chunk cannot be nil")
	}
	if err := ValidateChunk(&c.Chunk); err != nil {
		return err
	}
	if len(c.Embedding) != dimensions {
		return NewDomainErrorWithCause(ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(c.Embedding), dimensions), nil)
	}
	return nil
}
