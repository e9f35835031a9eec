package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codeshield-ai/codeshield/internal/api"
	"github.com/codeshield-ai/codeshield/internal/service"
)

type Answerer interface {
	Answer(ctx context.Context, input service.AnswerInput) (*service.Answer, error)
}

type QueryHandler struct {
	svc Answerer
}

func NewQueryHandler(svc Answerer) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
	Category string `json:"category"`
}

// Query answers a natural-language question grounded in stored standards.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := h.svc.Answer(r.Context(), service.AnswerInput{
		Query:    req.Query,
		Language: req.Language,
		Category: req.Category,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answer)
}
