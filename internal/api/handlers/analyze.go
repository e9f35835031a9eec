package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codeshield-ai/codeshield/internal/api"
	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/service"
)

type ComplianceAnalyzer interface {
	Analyze(ctx context.Context, input service.AnalyzeInput) (*domain.Verdict, error)
}

type AnalyzeHandler struct {
	svc ComplianceAnalyzer
}

func NewAnalyzeHandler(svc ComplianceAnalyzer) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

type AnalyzeRequest struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type VerdictResponse struct {
	Status           string   `json:"status"`
	Risk             string   `json:"risk"`
	Summary          string   `json:"summary"`
	SecureExample    string   `json:"secure_example,omitempty"`
	InsecureExample  string   `json:"insecure_example,omitempty"`
	KnowledgeSources []string `json:"knowledge_sources"`
}

func verdictToResponse(v *domain.Verdict) *VerdictResponse {
	sources := v.KnowledgeSources
	if sources == nil {
		sources = []string{}
	}
	return &VerdictResponse{
		Status:           string(v.Status),
		Risk:             string(v.Risk),
		Summary:          v.Summary,
		SecureExample:    v.SecureExample,
		InsecureExample:  v.InsecureExample,
		KnowledgeSources: sources,
	}
}

// Analyze checks a single file's content against stored security standards.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	verdict, err := h.svc.Analyze(r.Context(), service.AnalyzeInput{
		FilePath: req.FilePath,
		Content:  req.Content,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, verdictToResponse(verdict))
}
