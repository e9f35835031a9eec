package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codeshield-ai/codeshield/internal/classify"
	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/openai"
	"github.com/codeshield-ai/codeshield/internal/telemetry"
	"github.com/codeshield-ai/codeshield/internal/textsplit"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// EmbeddingGateway produces vectors for chunk and query text. Implemented
// by openai.Gateway; the Degraded flag on the result marks fallback vectors.
type EmbeddingGateway interface {
	Embed(ctx context.Context, text string) (openai.Embedding, error)
	Available() bool
}

// ChunkInserter is the write half of the knowledge store contract.
type ChunkInserter interface {
	Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error
}

// IngestInput carries one document into the pipeline. Language and
// Category, when set, override the classifier's inference for every chunk.
type IngestInput struct {
	Content    string
	Source     string
	SourceHint string
	Language   string
	Category   string
	Metadata   map[string]any
}

// IngestResult reports what one ingestion call stored.
type IngestResult struct {
	ChunksProcessed int    `json:"chunks_processed"`
	ChunksSkipped   int    `json:"chunks_skipped"`
	Source          string `json:"source"`
	Degraded        bool   `json:"degraded"`
}

// IngestConfig bounds the embedding fan-out.
type IngestConfig struct {
	Concurrency   int
	MinChunkChars int
	ChunkOptions  textsplit.Options
}

// DefaultIngestConfig returns the default ingestion configuration.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Concurrency:   4,
		MinChunkChars: 50,
		ChunkOptions:  textsplit.DefaultOptions(),
	}
}

// IngestService turns raw document text into embedded chunks in the store:
// chunk, classify, embed, insert. Embedding runs with bounded parallelism;
// the batch insert only happens once every chunk embedded successfully, so
// a document is never partially visible.
type IngestService struct {
	gateway EmbeddingGateway
	store   ChunkInserter
	uuidGen UUIDGenerator
	cfg     IngestConfig
}

// NewIngestService creates a new IngestService instance
func NewIngestService(gateway EmbeddingGateway, store ChunkInserter) *IngestService {
	return NewIngestServiceWithConfig(gateway, store, DefaultIngestConfig())
}

// NewIngestServiceWithConfig creates an IngestService with explicit configuration.
func NewIngestServiceWithConfig(gateway EmbeddingGateway, store ChunkInserter, cfg IngestConfig) *IngestService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &IngestService{
		gateway: gateway,
		store:   store,
		uuidGen: &DefaultUUIDGenerator{},
		cfg:     cfg,
	}
}

// WithUUIDGenerator overrides ID generation, used by tests.
func (s *IngestService) WithUUIDGenerator(gen UUIDGenerator) *IngestService {
	s.uuidGen = gen
	return s
}

// Ingest chunks, classifies, embeds and stores one document.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		Source:    input.Source,
		Language:  input.Language,
		Operation: "ingest",
	})
	defer span.End()

	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.ErrEmptyContent
	}
	if input.Source == "" {
		return nil, domain.ErrMissingRequiredField
	}

	sourceHint := input.SourceHint
	if sourceHint == "" {
		sourceHint = input.Source
	}

	pieces := textsplit.Chunk(input.Content, s.cfg.ChunkOptions)

	skipped := 0
	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		if len(p.Content) < s.cfg.MinChunkChars {
			skipped++
			continue
		}

		meta := classify.Classify(p.Content, sourceHint)
		if input.Language != "" {
			meta.Language = input.Language
		}
		if input.Category != "" {
			meta.Topic = input.Category
		}

		chunks = append(chunks, domain.Chunk{
			ID:          s.uuidGen.NewString(),
			Content:     p.Content,
			Index:       p.Index,
			TotalChunks: p.TotalChunks,
			TokenCount:  p.TokenCount,
			Language:    meta.Language,
			Category:    meta.Topic,
			Type:        meta.Type,
			Severity:    meta.Severity,
			Source:      input.Source,
			Metadata:    input.Metadata,
		})
	}

	if len(chunks) == 0 {
		return &IngestResult{ChunksSkipped: skipped, Source: input.Source}, nil
	}

	embedded, err := s.embedAll(ctx, chunks)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := s.store.Insert(ctx, embedded); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to insert chunks: %w", err)
	}

	degraded := false
	for _, c := range embedded {
		if c.Degraded {
			degraded = true
			break
		}
	}

	return &IngestResult{
		ChunksProcessed: len(embedded),
		ChunksSkipped:   skipped,
		Source:          input.Source,
		Degraded:        degraded,
	}, nil
}

// embedAll embeds chunks with bounded parallelism. Any failure aborts the
// whole batch; the caller never inserts a partial document.
func (s *IngestService) embedAll(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	embedded := make([]domain.EmbeddedChunk, len(chunks))
	createdAt := time.Now().UTC()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	sem := make(chan struct{}, s.cfg.Concurrency)

	for i := range chunks {
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			emb, err := s.gateway.Embed(ctx, chunks[i].Content)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to embed chunk %d: %w", chunks[i].Index, err)
				}
				mu.Unlock()
				return
			}

			embedded[i] = domain.EmbeddedChunk{
				Chunk:     chunks[i],
				Embedding: emb.Vector,
				Degraded:  emb.Degraded,
				CreatedAt: createdAt,
			}
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return embedded, nil
}
