package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbeddingAPI is a controllable EmbeddingAPI implementation
type mockEmbeddingAPI struct {
	embedding []float32
	err       error
	calls     int
}

func (m *mockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.embedding, nil
}

// mockCompletionAPI is a controllable CompletionAPI implementation
type mockCompletionAPI struct {
	reply string
	err   error

	lastSystem []string
	lastUser   string
}

func (m *mockCompletionAPI) CreateCompletion(ctx context.Context, systemPrompts []string, userPrompt string) (string, error) {
	m.lastSystem = systemPrompts
	m.lastUser = userPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func newTestClient(embeddings EmbeddingAPI, completions CompletionAPI, dimensions int) *Client {
	return &Client{
		embeddings:  embeddings,
		completions: completions,
		dimensions:  dimensions,
	}
}

func TestGenerateEmbedding(t *testing.T) {
	api := &mockEmbeddingAPI{embedding: make([]float32, 8)}
	client := newTestClient(api, nil, 8)

	embedding, err := client.GenerateEmbedding(context.Background(), "hash passwords with bcrypt")
	require.NoError(t, err)
	assert.Len(t, embedding, 8)
	assert.Equal(t, 1, api.calls)
}

func TestGenerateEmbedding_EmptyText(t *testing.T) {
	client := newTestClient(&mockEmbeddingAPI{}, nil, 8)

	_, err := client.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGenerateEmbedding_WrongDimensions(t *testing.T) {
	api := &mockEmbeddingAPI{embedding: make([]float32, 4)}
	client := newTestClient(api, nil, 8)

	_, err := client.GenerateEmbedding(context.Background(), "text")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeDimensionMismatch, domainErr.Code)
}

func TestGenerateEmbedding_APIError(t *testing.T) {
	api := &mockEmbeddingAPI{err: errors.New("rate limited")}
	client := newTestClient(api, nil, 8)

	_, err := client.GenerateEmbedding(context.Background(), "text")
	assert.ErrorContains(t, err, "rate limited")
}

func TestComplete(t *testing.T) {
	api := &mockCompletionAPI{reply: "use bcrypt"}
	client := newTestClient(nil, api, 8)

	reply, err := client.Complete(context.Background(), []string{"system a", "system b"}, "how do I hash passwords?")
	require.NoError(t, err)
	assert.Equal(t, "use bcrypt", reply)
	assert.Equal(t, []string{"system a", "system b"}, api.lastSystem)
	assert.Equal(t, "how do I hash passwords?", api.lastUser)
}

func TestComplete_EmptyPrompt(t *testing.T) {
	client := newTestClient(nil, &mockCompletionAPI{}, 8)

	_, err := client.Complete(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNewClientWithConfig_DefaultDimensions(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "k"})
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())

	client = NewClientWithConfig(Config{APIKey: "k", EmbeddingDimensions: 768})
	assert.Equal(t, 768, client.Dimensions())
}
