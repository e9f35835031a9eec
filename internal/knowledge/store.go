// Package knowledge defines the vector store contract for embedded policy
// chunks and an exact in-process implementation of it. The same contract
// is satisfied by the pgvector-backed repository, so callers do not care
// whether retrieval is a linear scan or a delegated index.
package knowledge

import (
	"context"

	"github.com/codeshield-ai/codeshield/internal/domain"
)

// Store is the ingestion and retrieval contract over a persistent vector
// collection.
//
// Insert is all-or-nothing: either the whole batch becomes visible or none
// of it does, so partial documents are never observable mid-ingestion. It
// is a no-op on empty input. Search returns at most k results in
// non-increasing score order; ties break by insertion order
// (earlier-inserted first) so output is deterministic. Filtering is
// applied before ranking, and a stored chunk tagged language "all"
// satisfies any requested language.
type Store interface {
	Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error
	Search(ctx context.Context, queryVector []float32, filter domain.RetrievalFilter, k int) ([]domain.ScoredChunk, error)
}
