//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeshield-ai/codeshield/internal/api/handlers"
	"github.com/codeshield-ai/codeshield/internal/knowledge"
	"github.com/codeshield-ai/codeshield/internal/openai"
	"github.com/codeshield-ai/codeshield/internal/server"
	"github.com/codeshield-ai/codeshield/internal/service"
)

// testDimensions keeps fallback vectors small and the scan store fast
const testDimensions = 8

// E2ETestEnv runs the full HTTP stack against the in-process knowledge
// store and the gateway's fallback embedding path. No external services.
type E2ETestEnv struct {
	Server *httptest.Server
	Store  *knowledge.MemoryStore
}

type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	t.Helper()

	store := knowledge.NewMemoryStore(testDimensions)
	gateway := openai.NewGateway(nil, testDimensions)

	ingestSvc := service.NewIngestService(gateway, store)
	answerSvc := service.NewAnswerService(gateway, store, nil)
	complianceSvc := service.NewComplianceService(gateway, store, nil)

	router := server.NewRouter(server.RouterConfig{
		UploadHandler:  handlers.NewUploadHandler(ingestSvc, nil),
		QueryHandler:   handlers.NewQueryHandler(answerSvc),
		AnalyzeHandler: handlers.NewAnalyzeHandler(complianceSvc),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &E2ETestEnv{Server: srv, Store: store}
}

func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	resp, err := http.Get(e.Server.URL + path)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(e.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

// UploadDocument posts a multipart policy document to /upload
func (e *E2ETestEnv) UploadDocument(filename, content string, fields map[string]string) (*APIResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return nil, err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, e.Server.URL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func parseResponse(resp *http.Response) (*APIResponse, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response %q: %w", raw, err)
	}

	if resp.StatusCode >= 400 {
		return &apiResp, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}
	return &apiResp, nil
}
