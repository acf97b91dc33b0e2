package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/marko-jovanovic/repolist-service/internal/models"
	"github.com/marko-jovanovic/repolist-service/internal/observability"
)

// RepoClient is the upstream boundary for repository data. SearchTopRepositories
// performs exactly one API call per invocation; there is no retry.
type RepoClient interface {
	SearchTopRepositories(ctx context.Context) ([]models.RepositorySummary, error)
	ValidateEndpoint(ctx context.Context) error
}

var (
	ErrRateLimited     = errors.New("rate limited")
	ErrInvalidQuery    = errors.New("invalid search query")
	ErrUpstreamFailure = errors.New("upstream failure")
)

// GitHubSearchClient fetches top repositories from the GitHub search API,
// sorted by stars descending and filtered to stars > minStars.
type GitHubSearchClient struct {
	apiURL   string
	timeout  time.Duration
	minStars int
	perPage  int
	client   *http.Client
}

func NewGitHubSearchClient(apiURL string, timeout time.Duration, minStars, perPage int) (*GitHubSearchClient, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("API URL is required")
	}
	if perPage <= 0 || perPage > 100 {
		return nil, fmt.Errorf("per page must be in 1..100, got %d", perPage)
	}
	if minStars < 0 {
		return nil, fmt.Errorf("min stars must be non-negative, got %d", minStars)
	}

	return &GitHubSearchClient{
		apiURL:   apiURL,
		timeout:  timeout,
		minStars: minStars,
		perPage:  perPage,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		ID              int64  `json:"id"`
		Name            string `json:"name"`
		StargazersCount int    `json:"stargazers_count"`
		HTMLURL         string `json:"html_url"`
		Homepage        string `json:"homepage"`
	} `json:"items"`
}

// SearchTopRepositories issues one search call and maps the untyped payload
// into RepositorySummary values, preserving the API's ordering.
func (c *GitHubSearchClient) SearchTopRepositories(ctx context.Context) ([]models.RepositorySummary, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx)
	if err != nil {
		observability.GitHubAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.GitHubAPICallsTotal.WithLabelValues("error").Inc()
		observability.GitHubAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.GitHubAPICallsTotal.WithLabelValues(status).Inc()
	observability.GitHubAPIDuration.WithLabelValues(status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var apiResp searchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return mapResponse(apiResp), nil
}

func (c *GitHubSearchClient) buildRequest(ctx context.Context) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", "stars:>"+strconv.Itoa(c.minStars))
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(c.perPage))
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	return req, nil
}

func (c *GitHubSearchClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w", ErrInvalidQuery)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

// mapResponse converts the wire payload into typed summaries. A null homepage
// decodes to the empty string and is treated as absent downstream.
func mapResponse(apiResp searchResponse) []models.RepositorySummary {
	repos := make([]models.RepositorySummary, 0, len(apiResp.Items))
	for _, item := range apiResp.Items {
		repos = append(repos, models.RepositorySummary{
			ID:            item.ID,
			Name:          item.Name,
			WatchCount:    item.StargazersCount,
			RepositoryURL: item.HTMLURL,
			HomepageURL:   item.Homepage,
		})
	}
	return repos
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 403 || statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// ValidateEndpoint checks that the search endpoint is reachable and answering.
// Used by the health handler.
func (c *GitHubSearchClient) ValidateEndpoint(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := c.buildRequest(ctx)
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: validation throttled", ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}

	return nil
}
