// Package github lists and fetches repository files through the GitHub
// REST API, the source host for repository compliance scans.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeshield-ai/codeshield/internal/domain"
)

const defaultBaseURL = "https://api.github.com"

// RepoRef identifies one repository and the ref to read from. Branch may
// be empty, in which case the repository's default branch is resolved.
type RepoRef struct {
	Owner  string
	Repo   string
	Branch string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// TreeEntry is one blob in a repository tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Client talks to the GitHub REST API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a GitHub client. An empty token leaves the client
// unavailable; calls fail with a provider-unavailable error instead of
// burning unauthenticated rate limit.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL overrides the API endpoint, used by tests.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Available reports whether a token is configured.
func (c *Client) Available() bool {
	return c.token != ""
}

// ParseRepoURL accepts "https://github.com/owner/repo", the same with a
// trailing .git, or a bare "owner/repo" shorthand.
func ParseRepoURL(raw string) (RepoRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RepoRef{}, domain.ErrInvalidRepoURL
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || !strings.HasSuffix(u.Host, "github.com") {
			return RepoRef{}, domain.ErrInvalidRepoURL
		}
		s = strings.Trim(u.Path, "/")
	}

	s = strings.TrimSuffix(s, ".git")
	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, domain.ErrInvalidRepoURL
	}

	return RepoRef{Owner: parts[0], Repo: parts[1]}, nil
}

type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// DefaultBranch resolves the repository's default branch.
func (c *Client) DefaultBranch(ctx context.Context, ref RepoRef) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", ref.Owner, ref.Repo))
	if err != nil {
		return "", err
	}

	var repo repoResponse
	if err := json.Unmarshal(body, &repo); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeProviderError,
			"unexpected GitHub repository response", err)
	}
	if repo.DefaultBranch == "" {
		return "main", nil
	}
	return repo.DefaultBranch, nil
}

// Tree lists every blob path in the repository at the ref's branch,
// recursively.
func (c *Client) Tree(ctx context.Context, ref RepoRef) ([]TreeEntry, error) {
	branch := ref.Branch
	if branch == "" {
		var err error
		branch, err = c.DefaultBranch(ctx, ref)
		if err != nil {
			return nil, err
		}
	}

	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", ref.Owner, ref.Repo, branch))
	if err != nil {
		return nil, err
	}

	var tree treeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProviderError,
			"unexpected GitHub tree response", err)
	}

	entries := make([]TreeEntry, 0, len(tree.Tree))
	for _, t := range tree.Tree {
		if t.Type != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{Path: t.Path, Size: t.Size})
	}
	return entries, nil
}

// FetchFile returns the raw bytes of one file at the ref's branch.
func (c *Client) FetchFile(ctx context.Context, ref RepoRef, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", ref.Owner, ref.Repo, strings.TrimPrefix(path, "/"))
	if ref.Branch != "" {
		endpoint += "?ref=" + url.QueryEscape(ref.Branch)
	}
	return c.getRaw(ctx, endpoint)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.request(ctx, path, "application/vnd.github+json")
}

func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	return c.request(ctx, path, "application/vnd.github.raw+json")
}

func (c *Client) request(ctx context.Context, path, accept string) ([]byte, error) {
	if !c.Available() {
		return nil, domain.NewDomainError(domain.ErrCodeProviderUnavailable,
			"GitHub token is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProviderError,
			"GitHub request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProviderError,
			"failed to read GitHub response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrSourceNotFound
	case resp.StatusCode >= 400:
		return nil, domain.NewDomainError(domain.ErrCodeProviderError,
			fmt.Sprintf("GitHub returned status %d", resp.StatusCode))
	}

	return body, nil
}
