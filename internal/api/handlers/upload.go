package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/codeshield-ai/codeshield/internal/api"
	"github.com/codeshield-ai/codeshield/internal/extract"
	"github.com/codeshield-ai/codeshield/internal/service"
	"github.com/codeshield-ai/codeshield/internal/storage"
)

const maxUploadMemory = 10 << 20

type Ingestor interface {
	Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error)
}

// Archiver stores the original bytes of an uploaded document. Archiving is
// best effort; failures never fail the upload.
type Archiver interface {
	Store(ctx context.Context, key, contentType string, data []byte) error
}

type UploadHandler struct {
	ingest  Ingestor
	archive Archiver
}

// NewUploadHandler creates an UploadHandler. archive may be nil when no
// object storage is configured.
func NewUploadHandler(ingest Ingestor, archive Archiver) *UploadHandler {
	return &UploadHandler{ingest: ingest, archive: archive}
}

// Upload accepts a multipart policy document, extracts its text and feeds
// it through the ingestion pipeline.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	text, err := extract.Text(data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	input := service.IngestInput{
		Content:  text,
		Source:   header.Filename,
		Language: r.FormValue("language"),
		Category: r.FormValue("category"),
	}

	result, err := h.ingest.Ingest(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if h.archive != nil {
		key := storage.ObjectKey(header.Filename, time.Now().UTC())
		contentType := header.Header.Get("Content-Type")
		if err := h.archive.Store(r.Context(), key, contentType, data); err != nil {
			log.Printf("Failed to archive %s: %v", header.Filename, err)
		}
	}

	api.Success(w, http.StatusCreated, result)
}
