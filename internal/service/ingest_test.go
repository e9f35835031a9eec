package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testEmbedding(degraded bool) openai.Embedding {
	return openai.Embedding{Vector: []float32{0.1, 0.2, 0.3}, Degraded: degraded}
}

func testPolicyText() string {
	// Long enough to clear the minimum chunk size, short enough for one chunk.
	return strings.Repeat("Never store passwords in plain text, always hash them with bcrypt. ", 10)
}

func TestIngest_EmptyContent(t *testing.T) {
	svc := NewIngestService(&MockEmbeddingGateway{}, &MockChunkStore{})

	_, err := svc.Ingest(context.Background(), IngestInput{Content: "   ", Source: "policy.md"})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}

func TestIngest_MissingSource(t *testing.T) {
	svc := NewIngestService(&MockEmbeddingGateway{}, &MockChunkStore{})

	_, err := svc.Ingest(context.Background(), IngestInput{Content: "some content"})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}

func TestIngest_SingleChunkDocument(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store).WithUUIDGenerator(NewMockUUIDGenerator("chunk-1"))

	gateway.On("Embed", mock.Anything, mock.Anything).Return(testEmbedding(false), nil)

	var inserted []domain.EmbeddedChunk
	store.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).([]domain.EmbeddedChunk)
	}).Return(nil)

	result, err := svc.Ingest(context.Background(), IngestInput{
		Content: testPolicyText(),
		Source:  "password-policy.md",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChunksProcessed)
	assert.Equal(t, "password-policy.md", result.Source)
	assert.False(t, result.Degraded)

	require.Len(t, inserted, 1)
	c := inserted[0]
	assert.Equal(t, "chunk-1", c.ID)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, 1, c.TotalChunks)
	assert.Equal(t, "password-policy.md", c.Source)
	// "never" marks the policy as forbidding a practice, "password"+"hash" set the topic.
	assert.Equal(t, domain.PracticeTypeForbidden, c.Type)
	assert.Equal(t, "password_hashing", c.Category)
}

func TestIngest_LanguageOverride(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store)

	gateway.On("Embed", mock.Anything, mock.Anything).Return(testEmbedding(false), nil)

	var inserted []domain.EmbeddedChunk
	store.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).([]domain.EmbeddedChunk)
	}).Return(nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:  testPolicyText(),
		Source:   "policy.md",
		Language: "python",
		Category: "password_hashing",
	})
	require.NoError(t, err)

	require.Len(t, inserted, 1)
	assert.Equal(t, "python", inserted[0].Language)
	assert.Equal(t, "password_hashing", inserted[0].Category)
}

func TestIngest_SkipsTinyChunks(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store)

	result, err := svc.Ingest(context.Background(), IngestInput{
		Content: "Too short.",
		Source:  "note.md",
	})
	require.NoError(t, err)

	assert.Zero(t, result.ChunksProcessed)
	assert.Equal(t, 1, result.ChunksSkipped)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngest_EmbedFailureAbortsBatch(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store)

	gateway.On("Embed", mock.Anything, mock.Anything).Return(openai.Embedding{}, errors.New("boom"))

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content: testPolicyText(),
		Source:  "policy.md",
	})
	require.Error(t, err)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngest_InsertFailureSurfaces(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store)

	gateway.On("Embed", mock.Anything, mock.Anything).Return(testEmbedding(false), nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection lost"))

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content: testPolicyText(),
		Source:  "policy.md",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestIngest_DegradedFlagPropagates(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store)

	gateway.On("Embed", mock.Anything, mock.Anything).Return(testEmbedding(true), nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Ingest(context.Background(), IngestInput{
		Content: testPolicyText(),
		Source:  "policy.md",
	})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestIngest_MultiChunkDocumentKeepsOrder(t *testing.T) {
	gateway := &MockEmbeddingGateway{}
	store := &MockChunkStore{}
	svc := NewIngestService(gateway, store)

	gateway.On("Embed", mock.Anything, mock.Anything).Return(testEmbedding(false), nil)

	var inserted []domain.EmbeddedChunk
	store.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).([]domain.EmbeddedChunk)
	}).Return(nil)

	// Three long sentences force multiple chunks.
	var b strings.Builder
	for i := 0; i < 3; i++ {
		for w := 0; w < 465; w++ {
			b.WriteString("word ")
		}
		b.WriteString("end.\n")
	}

	result, err := svc.Ingest(context.Background(), IngestInput{
		Content: b.String(),
		Source:  "big-policy.md",
	})
	require.NoError(t, err)
	require.Greater(t, result.ChunksProcessed, 1)

	for i, c := range inserted {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(inserted), c.TotalChunks)
		assert.Equal(t, "big-policy.md", c.Source)
	}
}
