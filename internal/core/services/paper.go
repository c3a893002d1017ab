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

// Ensure PaperAnswerer implements the interface.
var _ driving.Answerer = (*PaperAnswerer)(nil)

// Trace values describing the paper search.
const (
	SortMostRecentFirst = "most_recent_first"
	DateRangeRecent     = "Last 18 months"
	DateRangeAll        = "All time"
)

const (
	paperPromptLimit  = 5
	paperSummaryLimit = 600
	paperAuthorLimit  = 5
	paperCategoryCap  = 3
	paperMaxTokens    = 3000
	paperTemperature  = 0.3
	paperLLMTimeout   = 90 * time.Second
)

// queryPrefixes are stripped from the lower-cased query, in order.
var queryPrefixes = []string{
	"recent papers on", "papers about", "papers on", "find papers", "search for", "research on",
}

// topicRewrites map common topics to fielded arXiv queries.
var topicRewrites = []struct {
	topic string
	query string
}{
	{"ai safety", "cat:cs.AI AND (safety OR alignment OR robustness OR interpretability)"},
	{"transformer", "cat:cs.AI AND (transformer OR attention mechanism)"},
	{"reinforcement learning", "cat:cs.LG AND (reinforcement learning OR RL)"},
}

// PaperAnswerer reviews recent arXiv papers for a query.
type PaperAnswerer struct {
	searcher   driven.PaperSearcher
	llm        driven.LLMService
	prompts    driven.PromptStore
	maxResults int
	window     time.Duration
	policy     retry.Policy
	now        func() time.Time
}

// NewPaperAnswerer creates a paper answerer.
func NewPaperAnswerer(
	searcher driven.PaperSearcher,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.PaperSettings,
) *PaperAnswerer {
	defaults := domain.DefaultAppSettings().Paper
	if settings.MaxResults <= 0 {
		settings.MaxResults = defaults.MaxResults
	}
	if settings.RecentWindow <= 0 {
		settings.RecentWindow = defaults.RecentWindow
	}
	return &PaperAnswerer{
		searcher:   searcher,
		llm:        llm,
		prompts:    prompts,
		maxResults: settings.MaxResults,
		window:     settings.RecentWindow,
		policy:     retry.DefaultPolicy("paper"),
		now:        time.Now,
	}
}

// SetRetryPolicy overrides the retry policy for search and LLM calls.
func (a *PaperAnswerer) SetRetryPolicy(p retry.Policy) {
	p.Name = "paper"
	a.policy = p
}

// Kind returns AgentPaper.
func (a *PaperAnswerer) Kind() domain.AgentKind {
	return domain.AgentPaper
}

// CleanPaperQuery lower-cases q, strips request phrasing, and rewrites known
// topics into fielded arXiv queries. It returns the cleaned text and the
// query sent to arXiv.
func CleanPaperQuery(q string) (cleaned, search string) {
	cleaned = strings.ToLower(q)
	for _, prefix := range queryPrefixes {
		cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, prefix, ""))
	}

	search = cleaned
	lower := strings.ToLower(q)
	for _, rw := range topicRewrites {
		if strings.Contains(lower, rw.topic) {
			search = rw.query
			break
		}
	}
	return cleaned, search
}

// Answer searches arXiv for q.Text and asks the LLM for a structured review.
func (a *PaperAnswerer) Answer(ctx context.Context, q domain.Query) (string, domain.Trace) {
	answer, trace, err := a.answer(ctx, q)
	if err != nil {
		logger.Warn("paper: %v", err)
		return "ArXiv search failed: " + err.Error(), domain.ErrorTrace(q.Text, err)
	}
	return answer, trace
}

func (a *PaperAnswerer) answer(ctx context.Context, q domain.Query) (string, domain.Trace, error) {
	cleaned, search := CleanPaperQuery(q.Text)
	if search == "" {
		return "", domain.Trace{}, fmt.Errorf("%w: empty paper query", domain.ErrInvalidInput)
	}
	logger.Debug("paper: search %q", search)

	trace := domain.Trace{
		Query:        q.Text,
		CleanedQuery: cleaned,
		SearchQuery:  search,
		SortOrder:    SortMostRecentFirst,
		DateRange:    DateRangeAll,
	}

	start := time.Now()
	papers, err := retry.Do(ctx, a.policy, func(ctx context.Context) ([]domain.Paper, error) {
		return a.searcher.Search(ctx, domain.PaperQuery{
			SearchQuery:     search,
			MaxResults:      a.maxResults * 2,
			SortBySubmitted: true,
		})
	})
	if err != nil {
		return "", trace, err
	}
	trace.Duration = seconds(time.Since(start))

	if len(papers) == 0 {
		trace.TotalFound = domain.IntPtr(0)
		return fmt.Sprintf("No recent papers found on ArXiv for '%s'. Try different or broader search terms.", q.Text),
			trace, nil
	}

	if wantsRecent(q.Text) {
		trace.DateRange = DateRangeRecent
		papers = a.recent(papers)
		logger.Debug("paper: %d papers within %s", len(papers), a.window)
	}
	if len(papers) > a.maxResults {
		papers = papers[:a.maxResults]
	}
	if len(papers) == 0 {
		trace.TotalFound = domain.IntPtr(0)
		return fmt.Sprintf("No papers found matching '%s'. Try broader search terms.", q.Text), trace, nil
	}

	papers = append([]domain.Paper(nil), papers...)
	for i := range papers {
		papers[i].Summary = strings.TrimSpace(truncateRunes(papers[i].Summary, paperSummaryLimit))
		papers[i].PublishedAt = time.Time{}
	}
	trace.Papers = papers
	trace.TotalFound = domain.IntPtr(len(papers))

	if a.llm == nil {
		return "", trace, fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable)
	}
	template, err := a.prompts.Load(driven.PromptPaperAnswer)
	if err != nil {
		return "", trace, fmt.Errorf("load prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, q.Text, formatPapers(papers))

	llmStart := time.Now()
	answer, err := generate(ctx, a.llm, a.policy, driven.Completion{
		Prompt:      prompt,
		MaxTokens:   paperMaxTokens,
		Temperature: paperTemperature,
	}, paperLLMTimeout)
	if err != nil {
		return "", trace, err
	}
	trace.LLMDuration = seconds(time.Since(llmStart))

	return strings.TrimSpace(answer), trace, nil
}

// recent keeps papers published inside the recency window. Papers with no
// parsed date are dropped.
func (a *PaperAnswerer) recent(papers []domain.Paper) []domain.Paper {
	cutoff := a.now().Add(-a.window)
	out := papers[:0:0]
	for _, p := range papers {
		if !p.PublishedAt.IsZero() && p.PublishedAt.After(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

func wantsRecent(q string) bool {
	lower := strings.ToLower(q)
	return strings.Contains(lower, "recent") || strings.Contains(lower, "latest")
}

func formatPapers(papers []domain.Paper) string {
	shown := papers
	if len(shown) > paperPromptLimit {
		shown = shown[:paperPromptLimit]
	}

	blocks := make([]string, len(shown))
	for i, p := range shown {
		authors := p.Authors
		more := ""
		if len(authors) > paperAuthorLimit {
			authors = authors[:paperAuthorLimit]
			more = "..."
		}
		categories := p.Categories
		if len(categories) > paperCategoryCap {
			categories = categories[:paperCategoryCap]
		}
		blocks[i] = fmt.Sprintf(
			"[Paper %d]\nTitle: %s\nAuthors: %s%s\nPublished: %s\nArXiv ID: %s\nCategories: %s\nAbstract: %s\nPDF: %s",
			i+1, p.Title, strings.Join(authors, ", "), more, p.Published, p.ArxivID,
			strings.Join(categories, ", "), p.Summary, p.PDFURL,
		)
	}
	return fmt.Sprintf("ArXiv Papers Found (%d papers):\n%s", len(shown), strings.Join(blocks, "\n\n"))
}

// truncateRunes cuts s to at most n runes without a marker.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
