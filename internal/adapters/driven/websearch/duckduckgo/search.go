// Package duckduckgo scrapes the keyless DuckDuckGo HTML endpoint.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/ratelimit"
)

// Ensure Searcher implements the interface.
var _ driven.WebSearcher = (*Searcher)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://html.duckduckgo.com/html/"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// EngineName is reported in traces.
	EngineName = "DuckDuckGo"

	maxBodyBytes = 5 * 1024 * 1024
)

// Config holds configuration for the DuckDuckGo searcher.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Limiter   *ratelimit.Limiter
}

// Searcher runs web searches against DuckDuckGo's HTML results page.
type Searcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *ratelimit.Limiter
}

// New creates a DuckDuckGo searcher.
func New(cfg Config) *Searcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.ServiceDuckDuckGo)
	}

	return &Searcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		limiter:   cfg.Limiter,
	}
}

// Name returns the engine label used in traces.
func (s *Searcher) Name() string {
	return EngineName
}

// Search returns up to n results for query. Sponsored results are skipped.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]domain.WebResult, error) {
	if n <= 0 {
		n = 5
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?q="+url.QueryEscape(query), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: send request: %w", err)
	}
	defer resp.Body.Close()

	s.limiter.Observe(resp)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, domain.HTTPStatusError("duckduckgo", resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: parse html: %v", domain.ErrUpstream, err)
	}
	return parseResults(doc, n), nil
}

func parseResults(doc *goquery.Document, n int) []domain.WebResult {
	results := make([]domain.WebResult, 0, n)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}

		anchor := sel.Find("a.result__a").First()
		href, _ := anchor.Attr("href")
		link := resolveLink(href)
		title := collapse(anchor.Text())
		if link == "" || title == "" {
			return true
		}

		results = append(results, domain.WebResult{
			Position:      len(results) + 1,
			Title:         title,
			Link:          link,
			Snippet:       collapse(sel.Find(".result__snippet").First().Text()),
			DisplayedLink: collapse(sel.Find(".result__url").First().Text()),
		})
		return len(results) < n
	})
	return results
}

// resolveLink unwraps DuckDuckGo's //duckduckgo.com/l/?uddg=<url> redirect.
func resolveLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
