package knowledge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/codeshield-ai/codeshield/internal/domain"
)

// MemoryStore is an exact, in-process Store backed by a linear scan.
// Suitable at small scale and as the degraded-mode store when no database
// is configured. Safe for concurrent inserts and reads; chunks are
// append-only once inserted.
type MemoryStore struct {
	dimensions int

	mu     sync.RWMutex
	chunks []domain.EmbeddedChunk
}

// NewMemoryStore creates a MemoryStore expecting vectors of the given
// dimension.
func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{dimensions: dimensions}
}

// Insert validates and appends the batch. Any invalid chunk rejects the
// whole batch before anything is appended, so visibility stays
// all-or-nothing.
func (s *MemoryStore) Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i := range chunks {
		if err := domain.ValidateEmbeddedChunk(&chunks[i], s.dimensions); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, chunks...)
	s.mu.Unlock()
	return nil
}

// Search scores every chunk passing the filter by cosine similarity
// against queryVector and returns the top k, descending. Equal scores
// keep insertion order.
func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, filter domain.RetrievalFilter, k int) ([]domain.ScoredChunk, error) {
	if len(queryVector) != s.dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
			fmt.Sprintf("query vector has %d dimensions, expected %d", len(queryVector), s.dimensions), nil)
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	s.mu.RLock()
	results := make([]domain.ScoredChunk, 0, len(s.chunks))
	for i := range s.chunks {
		c := &s.chunks[i]
		if !filter.Matches(&c.Chunk) {
			continue
		}
		results = append(results, domain.ScoredChunk{
			Chunk: c.Chunk,
			Score: CosineSimilarity(queryVector, c.Embedding),
		})
	}
	s.mu.RUnlock()

	// Stable sort preserves insertion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
