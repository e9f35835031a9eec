package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/codeshield-ai/codeshield/internal/api"
	"github.com/codeshield-ai/codeshield/internal/classify"
	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/github"
	"github.com/codeshield-ai/codeshield/internal/service"
)

// maxRepoFiles caps how many files one ingest request pulls from a repo
const maxRepoFiles = 50

type RepoHost interface {
	Available() bool
	Tree(ctx context.Context, ref github.RepoRef) ([]github.TreeEntry, error)
	FetchFile(ctx context.Context, ref github.RepoRef, path string) ([]byte, error)
}

type GitHubHandler struct {
	host     RepoHost
	ingest   Ingestor
	analyzer ComplianceAnalyzer
}

func NewGitHubHandler(host RepoHost, ingest Ingestor, analyzer ComplianceAnalyzer) *GitHubHandler {
	return &GitHubHandler{host: host, ingest: ingest, analyzer: analyzer}
}

type TreeEntryResponse struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Language string `json:"language"`
}

type TreeResponse struct {
	Repo  string              `json:"repo"`
	Files []TreeEntryResponse `json:"files"`
}

// Tree lists the source files of a repository with their detected languages.
func (h *GitHubHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.resolveRepo(w, r.URL.Query().Get("repo"))
	if !ok {
		return
	}

	entries, err := h.host.Tree(r.Context(), ref)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	files := make([]TreeEntryResponse, 0, len(entries))
	for _, e := range entries {
		files = append(files, TreeEntryResponse{
			Path:     e.Path,
			Size:     e.Size,
			Language: classify.DetectLanguageFromPath(e.Path),
		})
	}

	api.Success(w, http.StatusOK, TreeResponse{Repo: ref.String(), Files: files})
}

type GitHubIngestRequest struct {
	Repo     string   `json:"repo"`
	Paths    []string `json:"paths"`
	Category string   `json:"category"`
}

type GitHubIngestResponse struct {
	Repo            string `json:"repo"`
	FilesProcessed  int    `json:"files_processed"`
	FilesSkipped    int    `json:"files_skipped"`
	ChunksProcessed int    `json:"chunks_processed"`
	Degraded        bool   `json:"degraded,omitempty"`
}

// Ingest pulls files from a repository and feeds them through the ingestion
// pipeline. Without explicit paths it ingests every file with a recognized
// source language, capped at maxRepoFiles.
func (h *GitHubHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req GitHubIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, ok := h.resolveRepo(w, req.Repo)
	if !ok {
		return
	}

	paths := req.Paths
	if len(paths) == 0 {
		entries, err := h.host.Tree(r.Context(), ref)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		paths = selectSourceFiles(entries)
	}
	if len(paths) > maxRepoFiles {
		paths = paths[:maxRepoFiles]
	}

	resp := GitHubIngestResponse{Repo: ref.String()}
	for _, path := range paths {
		data, err := h.host.FetchFile(r.Context(), ref, path)
		if err != nil {
			api.HandleError(w, err)
			return
		}

		if !utf8.Valid(data) {
			log.Printf("Skipping binary file %s in %s", path, ref)
			resp.FilesSkipped++
			continue
		}

		result, err := h.ingest.Ingest(r.Context(), service.IngestInput{
			Content:    string(data),
			Source:     path,
			SourceHint: path,
			Category:   req.Category,
			Metadata:   map[string]any{"repo": ref.String()},
		})
		if err != nil {
			var domainErr *domain.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeEmptyContent {
				resp.FilesSkipped++
				continue
			}
			api.HandleError(w, err)
			return
		}

		resp.FilesProcessed++
		resp.ChunksProcessed += result.ChunksProcessed
		resp.Degraded = resp.Degraded || result.Degraded
	}

	api.Success(w, http.StatusCreated, resp)
}

type GitHubAnalyzeRequest struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
}

type GitHubAnalyzeResponse struct {
	Repo    string           `json:"repo"`
	Path    string           `json:"path"`
	Verdict *VerdictResponse `json:"verdict"`
}

// Analyze fetches one repository file and checks it against stored
// standards.
func (h *GitHubHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req GitHubAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Path == "" {
		api.Error(w, http.StatusBadRequest, "path is required")
		return
	}

	ref, ok := h.resolveRepo(w, req.Repo)
	if !ok {
		return
	}

	data, err := h.host.FetchFile(r.Context(), ref, req.Path)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	verdict, err := h.analyzer.Analyze(r.Context(), service.AnalyzeInput{
		FilePath: req.Path,
		Content:  string(data),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, GitHubAnalyzeResponse{
		Repo:    ref.String(),
		Path:    req.Path,
		Verdict: verdictToResponse(verdict),
	})
}

func (h *GitHubHandler) resolveRepo(w http.ResponseWriter, repo string) (github.RepoRef, bool) {
	if repo == "" {
		api.Error(w, http.StatusBadRequest, "repo is required")
		return github.RepoRef{}, false
	}

	if !h.host.Available() {
		api.Error(w, http.StatusServiceUnavailable, "GitHub integration is not configured")
		return github.RepoRef{}, false
	}

	ref, err := github.ParseRepoURL(repo)
	if err != nil {
		api.HandleError(w, err)
		return github.RepoRef{}, false
	}
	return ref, true
}

func selectSourceFiles(entries []github.TreeEntry) []string {
	var paths []string
	for _, e := range entries {
		if classify.DetectLanguageFromPath(e.Path) != domain.LanguageAll {
			paths = append(paths, e.Path)
		}
	}
	return paths
}
