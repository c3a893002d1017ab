package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
	"github.com/custodia-labs/triage/internal/retry"
)

// Ensure WebAnswerer implements the interface.
var _ driving.Answerer = (*WebAnswerer)(nil)

// Fixed web replies.
const (
	MessageWebNotConfigured = "Web search is not configured. Set SERPAPI_API_KEY or switch web.backend to duckduckgo."
	MessageNoWebResults     = "No search results found for this query. Please try rephrasing your question."
)

const (
	webResultCount  = 5
	snippetLength   = 300
	webMaxTokens    = 2048
	webTemperature  = 0.3
	webLLMTimeout   = 60 * time.Second
	unconfiguredWeb = "SerpAPI"
)

// WebAnswerer answers from live web search results.
type WebAnswerer struct {
	searcher driven.WebSearcher
	llm      driven.LLMService
	prompts  driven.PromptStore
	policy   retry.Policy
}

// NewWebAnswerer creates a web answerer. A nil searcher means no backend is
// configured and every answer explains how to configure one.
func NewWebAnswerer(searcher driven.WebSearcher, llm driven.LLMService, prompts driven.PromptStore) *WebAnswerer {
	return &WebAnswerer{
		searcher: searcher,
		llm:      llm,
		prompts:  prompts,
		policy:   retry.DefaultPolicy("web"),
	}
}

// SetRetryPolicy overrides the retry policy for search and LLM calls.
func (a *WebAnswerer) SetRetryPolicy(p retry.Policy) {
	p.Name = "web"
	a.policy = p
}

// Kind returns AgentWeb.
func (a *WebAnswerer) Kind() domain.AgentKind {
	return domain.AgentWeb
}

// Answer searches the web for q.Text and summarises the top results.
func (a *WebAnswerer) Answer(ctx context.Context, q domain.Query) (string, domain.Trace) {
	if a.searcher == nil {
		return MessageWebNotConfigured, domain.Trace{
			Query:        q.Text,
			SearchEngine: unconfiguredWeb,
			Error:        fmt.Errorf("%w: SERPAPI_API_KEY not set", domain.ErrSearchUnavailable).Error(),
		}
	}

	engine := a.searcher.Name()
	answer, trace, err := a.answer(ctx, q, engine)
	if err != nil {
		logger.Warn("web: %v", err)
		return "Web search failed: " + err.Error(), domain.Trace{
			Query:        q.Text,
			SearchEngine: engine,
			Error:        err.Error(),
		}
	}
	return answer, trace
}

func (a *WebAnswerer) answer(ctx context.Context, q domain.Query, engine string) (string, domain.Trace, error) {
	start := time.Now()
	results, err := retry.Do(ctx, a.policy, func(ctx context.Context) ([]domain.WebResult, error) {
		return a.searcher.Search(ctx, q.Text, webResultCount)
	})
	if err != nil {
		return "", domain.Trace{}, err
	}
	if len(results) > webResultCount {
		results = results[:webResultCount]
	}
	logger.Debug("web: %s returned %d results", engine, len(results))

	trace := domain.Trace{
		Query:        q.Text,
		SearchEngine: engine,
		ResultsCount: domain.IntPtr(len(results)),
		Duration:     seconds(time.Since(start)),
	}
	if len(results) == 0 {
		return MessageNoWebResults, trace, nil
	}

	trace.Sources = make([]domain.SourceSummary, len(results))
	for i, r := range results {
		trace.Sources[i] = domain.SourceSummary{
			Position:      i + 1,
			Title:         orNA(r.Title),
			Link:          orNA(r.Link),
			Snippet:       truncate(orNA(r.Snippet), snippetLength),
			DisplayedLink: r.DisplayedLink,
		}
	}

	if a.llm == nil {
		return "", trace, fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable)
	}
	template, err := a.prompts.Load(driven.PromptWebAnswer)
	if err != nil {
		return "", trace, fmt.Errorf("load prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, q.Text, formatWebResults(results))

	llmStart := time.Now()
	answer, err := generate(ctx, a.llm, a.policy, driven.Completion{
		Prompt:      prompt,
		MaxTokens:   webMaxTokens,
		Temperature: webTemperature,
	}, webLLMTimeout)
	if err != nil {
		return "", trace, err
	}
	trace.LLMDuration = seconds(time.Since(llmStart))

	return strings.TrimSpace(answer), trace, nil
}

func formatWebResults(results []domain.WebResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source %d]\nTitle: %s\nURL: %s\nContent: %s",
			i+1, orNA(r.Title), orNA(r.Link), orNA(r.Snippet))
	}
	return strings.Join(blocks, "\n\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
