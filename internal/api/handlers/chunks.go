package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/codeshield-ai/codeshield/internal/api"
	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/pagination"
	"github.com/go-chi/chi/v5"
)

const defaultChunkPageSize = 20

type ChunkBrowser interface {
	ListWithCursor(ctx context.Context, source string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.EmbeddedChunk], error)
	GetByID(ctx context.Context, id string) (*domain.EmbeddedChunk, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type ChunkHandler struct {
	store ChunkBrowser
}

func NewChunkHandler(store ChunkBrowser) *ChunkHandler {
	return &ChunkHandler{store: store}
}

type ChunkResponse struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	TokenCount  int    `json:"token_count"`
	Language    string `json:"language"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Source      string `json:"source"`
	Degraded    bool   `json:"degraded,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func chunkToResponse(c domain.EmbeddedChunk) *ChunkResponse {
	return &ChunkResponse{
		ID:          c.ID,
		Content:     c.Content,
		ChunkIndex:  c.Index,
		TotalChunks: c.TotalChunks,
		TokenCount:  c.TokenCount,
		Language:    c.Language,
		Category:    c.Category,
		Type:        string(c.Type),
		Severity:    string(c.Severity),
		Source:      c.Source,
		Degraded:    c.Degraded,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ChunkListResponse struct {
	Items   []*ChunkResponse `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
	Total   int64            `json:"total"`
}

// List pages through stored chunks, optionally filtered by source.
func (h *ChunkHandler) List(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	limit := defaultChunkPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var cursor *pagination.Cursor
	if encoded := r.URL.Query().Get("cursor"); encoded != "" {
		decoded, err := pagination.DecodeCursor(encoded)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = decoded
	}

	page, err := h.store.ListWithCursor(r.Context(), source, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	total, err := h.store.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ChunkResponse, len(page.Items))
	for i, c := range page.Items {
		items[i] = chunkToResponse(c)
	}

	api.Success(w, http.StatusOK, ChunkListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
		Total:   total,
	})
}

// Get returns one stored chunk by ID.
func (h *ChunkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	chunk, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, chunkToResponse(*chunk))
}

type DeleteBySourceResponse struct {
	Source  string `json:"source"`
	Deleted int64  `json:"deleted"`
}

// DeleteBySource removes every chunk ingested from one source document.
// Corrections are modeled as delete then re-ingest.
func (h *ChunkHandler) DeleteBySource(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		api.Error(w, http.StatusBadRequest, "source is required")
		return
	}

	deleted, err := h.store.DeleteBySource(r.Context(), source)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DeleteBySourceResponse{Source: source, Deleted: deleted})
}
