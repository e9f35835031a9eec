package service

import (
	"context"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/openai"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingGateway is a mock implementation of EmbeddingGateway
type MockEmbeddingGateway struct {
	mock.Mock
}

func (m *MockEmbeddingGateway) Embed(ctx context.Context, text string) (openai.Embedding, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(openai.Embedding), args.Error(1)
}

func (m *MockEmbeddingGateway) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockChunkStore is a mock implementation of ChunkInserter and ChunkSearcher
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkStore) Search(ctx context.Context, queryVector []float32, filter domain.RetrievalFilter, k int) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, queryVector, filter, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

// MockCompletionClient is a mock implementation of CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, systemPrompts []string, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompts, userPrompt)
	return args.String(0), args.Error(1)
}

// MockUUIDGenerator returns a fixed sequence of IDs
type MockUUIDGenerator struct {
	ids  []string
	next int
}

func NewMockUUIDGenerator(ids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{ids: ids}
}

func (g *MockUUIDGenerator) NewString() string {
	if g.next < len(g.ids) {
		id := g.ids[g.next]
		g.next++
		return id
	}
	g.next++
	return "generated-id"
}

func scored(id, source string, practice domain.PracticeType, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:          id,
			Content:     "Use parameterized queries for all database access from " + source + ".",
			Index:       0,
			TotalChunks: 1,
			TokenCount:  12,
			Language:    domain.LanguageAll,
			Category:    "general",
			Type:        practice,
			Severity:    domain.SeverityWarning,
			Source:      source,
		},
		Score: score,
	}
}
