package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/telemetry"
)

// forbiddenScoreThreshold is how close a forbidden-practice chunk has to
// match before the answer is flagged as describing a forbidden pattern.
const forbiddenScoreThreshold = 0.7

const (
	retrievalLimit      = 8
	maxSecureContext    = 3
	maxForbiddenContext = 2
)

// CompletionClient is the generative half of the model provider.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompts []string, userPrompt string) (string, error)
}

// ChunkSearcher is the read half of the knowledge store contract.
type ChunkSearcher interface {
	Search(ctx context.Context, queryVector []float32, filter domain.RetrievalFilter, k int) ([]domain.ScoredChunk, error)
}

// AnswerInput is one natural-language question against the knowledge base.
type AnswerInput struct {
	Query    string
	Language string
	Category string
}

// Answer is a grounded response assembled from retrieved chunks and the
// generative provider's reply.
type Answer struct {
	Explanation  string   `json:"explanation"`
	SecureCode   string   `json:"secure_code,omitempty"`
	InsecureCode string   `json:"insecure_code,omitempty"`
	Sources      []string `json:"sources"`
	Forbidden    bool     `json:"forbidden"`
	Degraded     bool     `json:"degraded,omitempty"`
}

var answerSystemPrompts = []string{
	"You are a security standards assistant. Answer questions strictly from the provided context.",
	"Prefer secure, modern practice. When the context marks a pattern as forbidden, say so explicitly and show the approved alternative.",
	"When you include code, put the secure example in the first fenced code block and, when relevant, the insecure pattern in a second fenced block.",
	"If the context does not cover the question, answer that the knowledge base does not cover it. Do not invent guidance.",
}

// AnswerService retrieves relevant chunks for a query and composes a
// grounded answer. When the generative provider is unavailable it still
// returns a deterministic answer built from the top retrieved chunks.
type AnswerService struct {
	gateway     EmbeddingGateway
	store       ChunkSearcher
	completions CompletionClient
}

// NewAnswerService creates a new AnswerService instance. completions may
// be nil when no generative provider is configured.
func NewAnswerService(gateway EmbeddingGateway, store ChunkSearcher, completions CompletionClient) *AnswerService {
	return &AnswerService{
		gateway:     gateway,
		store:       store,
		completions: completions,
	}
}

// Answer retrieves context for the query and composes a grounded answer.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) (*Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		Language:  input.Language,
		Operation: "query",
	})
	defer span.End()

	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrEmptyContent
	}

	emb, err := s.gateway.Embed(ctx, input.Query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	filter := domain.RetrievalFilter{Language: input.Language, Category: input.Category}
	results, err := s.store.Search(ctx, emb.Vector, filter, retrievalLimit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	secure, forbidden := splitByPractice(results)
	isForbidden := len(forbidden) > 0 && forbidden[0].Score > forbiddenScoreThreshold

	answer := &Answer{
		Sources:   collectSources(results),
		Forbidden: isForbidden,
	}

	if len(results) == 0 {
		answer.Explanation = "The security knowledge base does not cover this question yet. Try ingesting relevant policy documents first."
		return answer, nil
	}

	if s.completions == nil || !s.gateway.Available() {
		s.composeFallback(answer, secure, forbidden)
		return answer, nil
	}

	reply, err := s.completions.Complete(ctx, answerSystemPrompts, buildAnswerPrompt(input.Query, secure, forbidden))
	if err != nil {
		// Provider trouble degrades to the retrieval-only answer.
		s.composeFallback(answer, secure, forbidden)
		return answer, nil
	}

	blocks, prose := parseFencedBlocks(reply)
	if len(blocks) > 0 {
		answer.SecureCode = blocks[0].Body
	}
	if len(blocks) > 1 {
		answer.InsecureCode = blocks[1].Body
	}
	answer.Explanation = prose
	if answer.Explanation == "" {
		answer.Explanation = "See the code examples below."
	}

	return answer, nil
}

// composeFallback fills the answer directly from retrieved content when no
// free-form generation happened.
func (s *AnswerService) composeFallback(answer *Answer, secure, forbidden []domain.ScoredChunk) {
	var b strings.Builder

	if answer.Forbidden {
		b.WriteString("This practice is flagged as forbidden by the security standards.\n\n")
		b.WriteString(forbidden[0].Chunk.Content)
		if len(secure) > 0 {
			b.WriteString("\n\nApproved alternative:\n\n")
			b.WriteString(secure[0].Chunk.Content)
		}
	} else if len(secure) > 0 {
		b.WriteString(secure[0].Chunk.Content)
	} else {
		b.WriteString(forbidden[0].Chunk.Content)
	}

	answer.Explanation = b.String()
	answer.Degraded = true
}

// splitByPractice separates retrieved chunks into secure guidance and
// forbidden patterns, keeping rank order and capping each side so the
// prompt stays small.
func splitByPractice(results []domain.ScoredChunk) (secure, forbidden []domain.ScoredChunk) {
	for _, r := range results {
		if r.Chunk.Type == domain.PracticeTypeForbidden {
			if len(forbidden) < maxForbiddenContext {
				forbidden = append(forbidden, r)
			}
			continue
		}
		if len(secure) < maxSecureContext {
			secure = append(secure, r)
		}
	}
	return secure, forbidden
}

func buildAnswerPrompt(query string, secure, forbidden []domain.ScoredChunk) string {
	var b strings.Builder

	b.WriteString("Context:\n\n")
	n := 1
	for _, r := range secure {
		writeContextEntry(&b, n, r)
		n++
	}
	for _, r := range forbidden {
		writeContextEntry(&b, n, r)
		n++
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

func writeContextEntry(b *strings.Builder, n int, r domain.ScoredChunk) {
	label := "secure practice"
	if r.Chunk.Type == domain.PracticeTypeForbidden {
		label = "forbidden pattern"
	}
	fmt.Fprintf(b, "Source %d (%s - %s/%s, %s):\n%s\n\n",
		n, r.Chunk.Source, r.Chunk.Language, r.Chunk.Category, label, r.Chunk.Content)
}

// collectSources de-duplicates chunk sources preserving rank order.
func collectSources(results []domain.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.Chunk.Source]; ok {
			continue
		}
		seen[r.Chunk.Source] = struct{}{}
		sources = append(sources, r.Chunk.Source)
	}
	return sources
}
