package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codeshield-ai/codeshield/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadHandler_Success(t *testing.T) {
	mockIngest := new(MockIngestor)
	handler := NewUploadHandler(mockIngest, nil)

	mockIngest.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.Source == "policy.md" && strings.Contains(input.Content, "bcrypt")
	})).Return(&service.IngestResult{ChunksProcessed: 2, Source: "policy.md"}, nil)

	req := multipartRequest(t, "policy.md", "# Passwords\nAlways hash passwords with bcrypt.", nil)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["chunks_processed"])
	assert.Equal(t, "policy.md", data["source"])
	mockIngest.AssertExpectations(t)
}

func TestUploadHandler_LanguageAndCategoryFields(t *testing.T) {
	mockIngest := new(MockIngestor)
	handler := NewUploadHandler(mockIngest, nil)

	mockIngest.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.Language == "go" && input.Category == "authentication"
	})).Return(&service.IngestResult{ChunksProcessed: 1, Source: "auth.txt"}, nil)

	fields := map[string]string{"language": "go", "category": "authentication"}
	req := multipartRequest(t, "auth.txt", "Use short-lived tokens.", fields)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockIngest.AssertExpectations(t)
}

func TestUploadHandler_MissingFile(t *testing.T) {
	mockIngest := new(MockIngestor)
	handler := NewUploadHandler(mockIngest, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("language", "go"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")
	mockIngest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestUploadHandler_UnsupportedFileType(t *testing.T) {
	mockIngest := new(MockIngestor)
	handler := NewUploadHandler(mockIngest, nil)

	req := multipartRequest(t, "archive.zip", "not really a zip", nil)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	mockIngest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestUploadHandler_IngestError(t *testing.T) {
	mockIngest := new(MockIngestor)
	handler := NewUploadHandler(mockIngest, nil)

	mockIngest.On("Ingest", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed"))

	req := multipartRequest(t, "policy.md", "Some policy text.", nil)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUploadHandler_ArchivesOriginalDocument(t *testing.T) {
	mockIngest := new(MockIngestor)
	mockArchive := new(MockArchiver)
	handler := NewUploadHandler(mockIngest, mockArchive)

	content := "Rotate API keys every 90 days."
	mockIngest.On("Ingest", mock.Anything, mock.Anything).
		Return(&service.IngestResult{ChunksProcessed: 1, Source: "rotation.md"}, nil)
	mockArchive.On("Store", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "policies/") && strings.HasSuffix(key, "rotation.md")
	}), mock.Anything, []byte(content)).Return(nil)

	req := multipartRequest(t, "rotation.md", content, nil)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockArchive.AssertExpectations(t)
}

func TestUploadHandler_ArchiveFailureDoesNotFailRequest(t *testing.T) {
	mockIngest := new(MockIngestor)
	mockArchive := new(MockArchiver)
	handler := NewUploadHandler(mockIngest, mockArchive)

	mockIngest.On("Ingest", mock.Anything, mock.Anything).
		Return(&service.IngestResult{ChunksProcessed: 1, Source: "policy.md"}, nil)
	mockArchive.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bucket unreachable"))

	req := multipartRequest(t, "policy.md", "Some policy text.", nil)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockArchive.AssertExpectations(t)
}
