// Package serpapi queries Google through the SerpAPI JSON endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/ratelimit"
)

// Ensure Searcher implements the interface.
var _ driven.WebSearcher = (*Searcher)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://serpapi.com"
	DefaultTimeout = 30 * time.Second
	DefaultNum     = 5

	// EngineName is reported in traces.
	EngineName = "SerpAPI (Google)"
)

// noResults is the error SerpAPI returns with a 200 when Google found nothing.
const noResults = "hasn't returned any results"

// Config holds configuration for the SerpAPI searcher.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL is the SerpAPI base URL (default: https://serpapi.com).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Limiter throttles requests (default: ratelimit.ServiceSerpAPI).
	Limiter *ratelimit.Limiter
}

// Searcher runs Google searches via SerpAPI.
type Searcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error,omitempty"`
}

type organicResult struct {
	Position      int    `json:"position"`
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	DisplayedLink string `json:"displayed_link"`
}

// New creates a SerpAPI searcher. Returns ErrSearchUnavailable without a key.
func New(cfg Config) (*Searcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: SERPAPI_API_KEY not set", domain.ErrSearchUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.ServiceSerpAPI)
	}

	return &Searcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: cfg.Limiter,
	}, nil
}

// Name returns the engine label used in traces.
func (s *Searcher) Name() string {
	return EngineName
}

// Search returns up to n organic results for query.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]domain.WebResult, error) {
	if n <= 0 {
		n = DefaultNum
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(n))
	params.Set("google_domain", "google.com")
	params.Set("gl", "us")
	params.Set("hl", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.json?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("serpapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi: send request: %w", err)
	}
	defer resp.Body.Close()

	s.limiter.Observe(resp)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.HTTPStatusError("serpapi", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: serpapi: decode response: %v", domain.ErrUpstream, err)
	}
	if result.Error != "" {
		if strings.Contains(result.Error, noResults) {
			return []domain.WebResult{}, nil
		}
		return nil, fmt.Errorf("%w: serpapi: %s", domain.ErrUpstream, result.Error)
	}

	results := make([]domain.WebResult, 0, min(n, len(result.OrganicResults)))
	for i, r := range result.OrganicResults {
		if i >= n {
			break
		}
		pos := r.Position
		if pos == 0 {
			pos = i + 1
		}
		results = append(results, domain.WebResult{
			Position:      pos,
			Title:         r.Title,
			Link:          r.Link,
			Snippet:       r.Snippet,
			DisplayedLink: r.DisplayedLink,
		})
	}
	return results, nil
}
