package service

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/codeshield-ai/codeshield/internal/classify"
	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/telemetry"
)

// maxAnalyzedChars caps how much file content goes to the provider, to
// bound cost and latency on large files.
const maxAnalyzedChars = 8000

const complianceRetrievalLimit = 5

// truncateAtRuneBoundary cuts s to at most max bytes without splitting a
// multibyte rune at the cut point.
func truncateAtRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// AnalyzeInput is one source file to check against the knowledge base.
type AnalyzeInput struct {
	FilePath string
	Content  string
}

var complianceSystemPrompts = []string{
	"You are a security compliance reviewer. Judge the submitted file strictly against the provided security standards context.",
	`Reply with a single JSON object and nothing else, using exactly these fields:
{"status": "COMPLIANT" | "PARTIALLY_COMPLIANT" | "NON_COMPLIANT" | "UNKNOWN", "risk": "LOW" | "MEDIUM" | "HIGH", "summary": "<one paragraph>", "secureExample": "<code or empty string>", "insecureExample": "<code or empty string>"}`,
	"If the context does not cover the file's patterns, use status UNKNOWN.",
}

// verdictPayload mirrors the JSON object the model is asked to produce.
type verdictPayload struct {
	Status          string `json:"status"`
	Risk            string `json:"risk"`
	Summary         string `json:"summary"`
	SecureExample   string `json:"secureExample"`
	InsecureExample string `json:"insecureExample"`
}

// ComplianceService checks a source file against the stored security
// standards and produces a structured verdict. Malformed model output is
// an expected condition and degrades to an UNKNOWN verdict, never an error.
type ComplianceService struct {
	gateway     EmbeddingGateway
	store       ChunkSearcher
	completions CompletionClient
}

// NewComplianceService creates a new ComplianceService instance.
// completions may be nil when no generative provider is configured.
func NewComplianceService(gateway EmbeddingGateway, store ChunkSearcher, completions CompletionClient) *ComplianceService {
	return &ComplianceService{
		gateway:     gateway,
		store:       store,
		completions: completions,
	}
}

// Analyze produces a compliance verdict for one file.
func (s *ComplianceService) Analyze(ctx context.Context, input AnalyzeInput) (*domain.Verdict, error) {
	ctx, span := telemetry.StartSpan(ctx, "ComplianceService.Analyze", telemetry.SpanAttributes{
		Source:    input.FilePath,
		Operation: "analyze",
	})
	defer span.End()

	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.ErrEmptyContent
	}

	content := truncateAtRuneBoundary(input.Content, maxAnalyzedChars)

	language := classify.DetectLanguageFromPath(input.FilePath)

	emb, err := s.gateway.Embed(ctx, content)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	filter := domain.RetrievalFilter{}
	if language != domain.LanguageAll {
		filter.Language = language
	}

	results, err := s.store.Search(ctx, emb.Vector, filter, complianceRetrievalLimit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sources := collectSources(results)

	if s.completions == nil || !s.gateway.Available() {
		return &domain.Verdict{
			Status:           domain.VerdictUnknown,
			Risk:             domain.RiskMedium,
			Summary:          "Compliance analysis requires a configured generative provider.",
			KnowledgeSources: sources,
		}, nil
	}

	reply, err := s.completions.Complete(ctx, complianceSystemPrompts, buildCompliancePrompt(input.FilePath, language, content, results))
	if err != nil {
		return &domain.Verdict{
			Status:           domain.VerdictUnknown,
			Risk:             domain.RiskMedium,
			Summary:          "The generative provider failed while analyzing this file.",
			KnowledgeSources: sources,
		}, nil
	}

	verdict := parseVerdict(reply)
	verdict.KnowledgeSources = sources
	return verdict, nil
}

// parseVerdict decodes the model reply into a Verdict. Invalid JSON
// degrades to UNKNOWN with the raw reply as summary.
func parseVerdict(reply string) *domain.Verdict {
	var payload verdictPayload
	if err := json.Unmarshal([]byte(stripJSONFence(reply)), &payload); err != nil {
		return &domain.Verdict{
			Status:  domain.VerdictUnknown,
			Risk:    domain.RiskMedium,
			Summary: reply,
		}
	}

	return &domain.Verdict{
		Status:          domain.NormalizeVerdictStatus(payload.Status),
		Risk:            domain.NormalizeRiskLevel(payload.Risk),
		Summary:         payload.Summary,
		SecureExample:   payload.SecureExample,
		InsecureExample: payload.InsecureExample,
	}
}

func buildCompliancePrompt(filePath, language, content string, results []domain.ScoredChunk) string {
	var b strings.Builder

	b.WriteString("Security standards context:\n\n")
	for i, r := range results {
		writeContextEntry(&b, i+1, r)
	}
	if len(results) == 0 {
		b.WriteString("(no matching standards found)\n\n")
	}

	b.WriteString("File to review: ")
	b.WriteString(filePath)
	if language != domain.LanguageAll {
		b.WriteString(" (")
		b.WriteString(language)
		b.WriteString(")")
	}
	b.WriteString("\n\n")
	b.WriteString(content)
	return b.String()
}
