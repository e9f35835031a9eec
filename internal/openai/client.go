// Package openai wraps the OpenAI-compatible embedding and chat completion
// APIs behind the two narrow capabilities the rest of the system consumes.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/codeshield-ai/codeshield/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings
	// from text-embedding-3-small
	DefaultEmbeddingDimensions = 1536
	// DefaultCompletionModel is the model used for grounded answers
	DefaultCompletionModel = openai.GPT4Dot1Mini
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoAPIKey is returned when no API key is configured
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// CompletionAPI defines the interface for chat completions
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, systemPrompts []string, userPrompt string) (string, error)
}

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client wraps an OpenAI-compatible provider (OpenAI or OpenRouter) and
// validates embedding dimensionality strictly: a mismatch is fatal to the
// call, never silently reshaped.
type Client struct {
	embeddings  EmbeddingAPI
	completions CompletionAPI
	dimensions  int
}

type apiAdapter struct {
	client          *openai.Client
	embeddingModel  openai.EmbeddingModel
	completionModel string
}

func newAPIAdapter(cfg Config) *apiAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	completionModel := cfg.CompletionModel
	if completionModel == "" {
		completionModel = DefaultCompletionModel
	}
	return &apiAdapter{
		client:          openai.NewClientWithConfig(clientCfg),
		embeddingModel:  embeddingModel,
		completionModel: completionModel,
	}
}

// CreateEmbeddings calls the embeddings API for a single input
func (a *apiAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateCompletion calls the chat completions API with the given system
// prompts followed by the user prompt.
func (a *apiAdapter) CreateCompletion(ctx context.Context, systemPrompts []string, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(systemPrompts)+1)
	for _, p := range systemPrompts {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.completionModel,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	CompletionModel     string
	EmbeddingDimensions int
}

// NewClient creates a new client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := newAPIAdapter(cfg)
	return &Client{
		embeddings:  adapter,
		completions: adapter,
		dimensions:  dimensions,
	}
}

// NewClientFromEnv creates a new client using the OPENAI_API_KEY
// environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Dimensions returns the expected embedding dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(embedding), c.dimensions), nil)
	}

	return embedding, nil
}

// Complete generates a chat completion from the given system context and
// user prompt
func (c *Client) Complete(ctx context.Context, systemPrompts []string, userPrompt string) (string, error) {
	if userPrompt == "" {
		return "", ErrEmptyText
	}

	reply, err := c.completions.CreateCompletion(ctx, systemPrompts, userPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}

	return reply, nil
}
