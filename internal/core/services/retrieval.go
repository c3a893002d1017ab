package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
	"github.com/custodia-labs/triage/internal/retry"
)

// Ensure RetrievalAnswerer implements the interface.
var _ driving.Answerer = (*RetrievalAnswerer)(nil)

// MessageNoDocuments is the reply when nothing has been ingested.
const MessageNoDocuments = "No documents have been uploaded yet. Upload a PDF first."

const (
	traceNoDocuments    = "no documents uploaded"
	previewLength       = 100
	retrievalMaxTokens  = 1024
	retrievalLLMTimeout = 60 * time.Second
)

// RetrievalAnswerer answers questions from uploaded documents.
type RetrievalAnswerer struct {
	embedder   driven.EmbeddingService
	index      driven.DocumentIndex
	llm        driven.LLMService
	prompts    driven.PromptStore
	topK       int
	multiplier int
	policy     retry.Policy
}

// NewRetrievalAnswerer creates a retrieval answerer.
func NewRetrievalAnswerer(
	embedder driven.EmbeddingService,
	index driven.DocumentIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.RetrievalSettings,
) *RetrievalAnswerer {
	defaults := domain.DefaultAppSettings().Retrieval
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.FilterMultiplier <= 0 {
		settings.FilterMultiplier = defaults.FilterMultiplier
	}
	return &RetrievalAnswerer{
		embedder:   embedder,
		index:      index,
		llm:        llm,
		prompts:    prompts,
		topK:       settings.TopK,
		multiplier: settings.FilterMultiplier,
		policy:     retry.DefaultPolicy("retrieval"),
	}
}

// SetRetryPolicy overrides the retry policy for embedding and LLM calls.
func (a *RetrievalAnswerer) SetRetryPolicy(p retry.Policy) {
	p.Name = "retrieval"
	a.policy = p
}

// Kind returns AgentRetrieval.
func (a *RetrievalAnswerer) Kind() domain.AgentKind {
	return domain.AgentRetrieval
}

// Answer retrieves the chunks closest to the question, optionally limited to
// q.DocumentID, and asks the LLM to answer from them alone.
func (a *RetrievalAnswerer) Answer(ctx context.Context, q domain.Query) (string, domain.Trace) {
	size := a.index.Count()
	if size == 0 {
		return MessageNoDocuments, domain.Trace{Query: q.Text, Error: traceNoDocuments}
	}

	answer, trace, err := a.answer(ctx, q, size)
	if err != nil {
		logger.Warn("retrieval: %v", err)
		return "RAG query failed: " + err.Error(), domain.ErrorTrace(q.Text, err)
	}
	return answer, trace
}

func (a *RetrievalAnswerer) answer(ctx context.Context, q domain.Query, size int) (string, domain.Trace, error) {
	trace := domain.Trace{
		Query:           q.Text,
		RetrieverFilter: domain.DocFilter(q.DocumentID),
		IndexSize:       size,
	}

	start := time.Now()
	vector, err := retry.Do(ctx, a.policy, func(ctx context.Context) ([]float32, error) {
		return a.embedder.Embed(ctx, q.Text)
	})
	if err != nil {
		return "", trace, fmt.Errorf("embed query: %w", err)
	}

	fetch := a.topK
	if q.DocumentID != "" {
		fetch = a.topK * a.multiplier
	}
	hits, err := a.index.Search(ctx, vector, fetch)
	if err != nil {
		return "", trace, fmt.Errorf("search index: %w", err)
	}
	hits = filterHits(hits, q.DocumentID, a.topK)
	trace.Duration = seconds(time.Since(start))

	if len(hits) == 0 {
		trace.Error = domain.ErrEmptyResult.Error()
		if q.DocumentID != "" {
			return fmt.Sprintf("No content found for document %s.", q.DocumentID), trace, nil
		}
		return "No relevant content found in the uploaded documents.", trace, nil
	}

	parts := make([]string, len(hits))
	trace.RetrievedDocs = make([]domain.RetrievedDoc, len(hits))
	for i, hit := range hits {
		parts[i] = hit.Chunk.Content
		trace.RetrievedDocs[i] = domain.RetrievedDoc{
			DocID:          hit.Chunk.DocumentID,
			ChunkID:        hit.Chunk.ID,
			Sequence:       hit.Chunk.Sequence,
			ContentPreview: preview(hit.Chunk.Content, previewLength),
		}
	}

	if a.llm == nil {
		return "", trace, fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable)
	}
	template, err := a.prompts.Load(driven.PromptRetrievalAnswer)
	if err != nil {
		return "", trace, fmt.Errorf("load prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, strings.Join(parts, "\n\n"), q.Text)

	llmStart := time.Now()
	answer, err := generate(ctx, a.llm, a.policy, driven.Completion{
		Prompt:    prompt,
		MaxTokens: retrievalMaxTokens,
	}, retrievalLLMTimeout)
	if err != nil {
		return "", trace, err
	}
	trace.LLMDuration = seconds(time.Since(llmStart))

	logger.Debug("retrieval: %d chunks from %s in %.3fs", len(hits), trace.RetrieverFilter, trace.Duration)
	return strings.TrimSpace(answer), trace, nil
}

// filterHits keeps hits for docID (all hits when empty) and truncates to k.
func filterHits(hits []domain.ScoredChunk, docID string, k int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, k)
	for _, hit := range hits {
		if docID != "" && hit.Chunk.DocumentID != docID {
			continue
		}
		out = append(out, hit)
		if len(out) == k {
			break
		}
	}
	return out
}

// generate calls the LLM under a timeout through the retry policy.
func generate(
	ctx context.Context,
	llm driven.LLMService,
	policy retry.Policy,
	c driven.Completion,
	timeout time.Duration,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	answer, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return llm.Complete(ctx, c)
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

// preview returns the first n runes of s followed by "...".
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}

// truncate shortens s to n runes, adding "..." only when something was cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// seconds converts d to seconds rounded to the millisecond.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
