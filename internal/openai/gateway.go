package openai

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/codeshield-ai/codeshield/internal/domain"
)

// Embedding is the result of one embedding call. Degraded marks vectors
// produced by the random fallback instead of the provider; their
// similarity scores are meaningless but keep the ingestion and query
// paths live.
type Embedding struct {
	Vector   []float32
	Degraded bool
}

// Gateway wraps the embedding provider and converts every provider
// failure (missing credential, transport error, malformed response) into
// a deterministic-shape fallback vector of the correct dimension. A
// dimension mismatch from the provider is the one exception: that is a
// broken contract and is surfaced, never reshaped.
type Gateway struct {
	client      *Client
	dimensions  int
	callTimeout time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithCallTimeout sets the per-call timeout applied to provider requests.
func WithCallTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.callTimeout = d }
}

// NewGateway creates a Gateway. client may be nil when no provider is
// configured; every call then takes the fallback path.
func NewGateway(client *Client, dimensions int, opts ...GatewayOption) *Gateway {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	g := &Gateway{
		client:      client,
		dimensions:  dimensions,
		callTimeout: 30 * time.Second,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimensions returns the embedding dimension the gateway produces.
func (g *Gateway) Dimensions() int {
	return g.dimensions
}

// Available reports whether a real provider is configured.
func (g *Gateway) Available() bool {
	return g.client != nil
}

// Embed returns an embedding for text. Provider failures and timeouts
// degrade to a random fallback vector; a dimension mismatch is returned
// as an error.
func (g *Gateway) Embed(ctx context.Context, text string) (Embedding, error) {
	if g.client == nil {
		log.Printf("embedding provider not configured, using fallback vector")
		return g.fallback(), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	vector, err := g.client.GenerateEmbedding(callCtx, text)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeDimensionMismatch {
			return Embedding{}, err
		}
		log.Printf("embedding provider call failed, using fallback vector: %v", err)
		return g.fallback(), nil
	}

	return Embedding{Vector: vector}, nil
}

// fallback builds a vector of the correct dimension filled with
// independent random values in [0, 1).
func (g *Gateway) fallback() Embedding {
	vector := make([]float32, g.dimensions)
	g.mu.Lock()
	for i := range vector {
		vector[i] = g.rng.Float32()
	}
	g.mu.Unlock()
	return Embedding{Vector: vector, Degraded: true}
}
