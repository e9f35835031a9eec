package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/codeshield-ai/codeshield/internal/domain"
)

const (
	// DefaultReembedBatchSize is the number of degraded chunks claimed per poll
	DefaultReembedBatchSize = 32
)

// DegradedChunkStore defines the persistence operations needed to repair
// chunks stored with fallback embeddings
type DegradedChunkStore interface {
	ListDegraded(ctx context.Context, limit int) ([]domain.EmbeddedChunk, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Embedder generates a real embedding vector or fails. A repair must never
// write another fallback vector, so this is the provider call without the
// degradation path.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ReembedWorker replaces fallback embeddings with provider embeddings once
// the provider is reachable again
type ReembedWorker struct {
	store     DegradedChunkStore
	embedder  Embedder
	batchSize int
}

// NewReembedWorker creates a new ReembedWorker instance
func NewReembedWorker(store DegradedChunkStore, embedder Embedder) *ReembedWorker {
	return &ReembedWorker{
		store:     store,
		embedder:  embedder,
		batchSize: DefaultReembedBatchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ReembedWorker) ProcessJobs(ctx context.Context) error {
	chunks, err := w.store.ListDegraded(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list degraded chunks: %w", err)
	}

	if len(chunks) == 0 {
		return nil
	}

	log.Printf("Repairing %d degraded chunks", len(chunks))

	for _, chunk := range chunks {
		if err := w.repairChunk(ctx, chunk); err != nil {
			// The provider is most likely still down. Abort the batch and
			// let the next poll retry the remaining chunks.
			return fmt.Errorf("failed to repair chunk %s: %w", chunk.ID, err)
		}
	}

	return nil
}

func (w *ReembedWorker) repairChunk(ctx context.Context, chunk domain.EmbeddedChunk) error {
	embedding, err := w.embedder.GenerateEmbedding(ctx, chunk.Content)
	if err != nil {
		return err
	}

	if err := w.store.UpdateEmbedding(ctx, chunk.ID, embedding); err != nil {
		// The chunk was deleted between listing and repair, nothing to do.
		if errors.Is(err, domain.ErrChunkNotFound) {
			log.Printf("Chunk %s deleted before repair, skipping", chunk.ID)
			return nil
		}
		return err
	}

	log.Printf("Chunk %s re-embedded", chunk.ID)
	return nil
}
