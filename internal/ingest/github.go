package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/teampulse/teampulse-backend/internal/resilience"
)

const defaultGitHubBaseURL = "https://api.github.com"

// GitHubCommit is one entry from the repository commits listing.
type GitHubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

// GitHubCommitDetail is the per-commit response carrying line stats.
type GitHubCommitDetail struct {
	SHA   string `json:"sha"`
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

// GitHubClient fetches commit activity from the GitHub REST API.
type GitHubClient struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewGitHubClient creates a client. Token may be empty for public repos.
func NewGitHubClient(token string) *GitHubClient {
	retry := resilience.DefaultRetryConfig()
	retry.Retryable = func(err error) bool {
		var httpErr *resilience.HTTPError
		if errors.As(err, &httpErr) {
			return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
		}
		return true
	}

	return &GitHubClient{
		baseURL: defaultGitHubBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		}),
		retry: retry,
	}
}

// WithBaseURL points the client at a different API host, for tests.
func (g *GitHubClient) WithBaseURL(baseURL string) *GitHubClient {
	g.baseURL = baseURL
	return g
}

// ListCommits fetches commits for a repository since the given time.
func (g *GitHubClient) ListCommits(ctx context.Context, owner, repo string, since time.Time) ([]GitHubCommit, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?since=%s&per_page=100",
		g.baseURL, owner, repo, url.QueryEscape(since.UTC().Format(time.RFC3339)))

	var commits []GitHubCommit
	if err := g.getJSON(ctx, endpoint, &commits); err != nil {
		return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}
	return commits, nil
}

// GetCommitDetail fetches a single commit with its line stats.
func (g *GitHubClient) GetCommitDetail(ctx context.Context, owner, repo, sha string) (*GitHubCommitDetail, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s", g.baseURL, owner, repo, sha)

	var detail GitHubCommitDetail
	if err := g.getJSON(ctx, endpoint, &detail); err != nil {
		return nil, fmt.Errorf("failed to fetch commit %s: %w", sha, err)
	}
	return &detail, nil
}

// getJSON performs a GET with breaker and retry protection and decodes the
// response body into out.
func (g *GitHubClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	return g.breaker.Call(func() error {
		return resilience.Retry(ctx, g.retry, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/vnd.github.v3+json")
			req.Header.Set("User-Agent", "teampulse-backend/1.0")
			if g.token != "" {
				req.Header.Set("Authorization", "Bearer "+g.token)
			}

			resp, err := g.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return &resilience.HTTPError{
					StatusCode: resp.StatusCode,
					Status:     fmt.Sprintf("%s: %s", resp.Status, string(body)),
				}
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
	})
}
