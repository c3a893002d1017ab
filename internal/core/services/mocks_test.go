package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/triage/internal/adapters/driven/config/file"
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/retry"
)

// noRetry keeps tests fast: a single attempt with no delay.
var noRetry = retry.Policy{Attempts: 1}

// --- LLM ---

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	requests []driven.Completion
}

func (m *mockLLM) Complete(_ context.Context, c driven.Completion) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.requests = append(m.requests, c)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockLLM) lastRequest() driven.Completion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return driven.Completion{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockLLM) lastPrompt() string {
	return m.lastRequest().Prompt
}

// --- Embeddings ---

// mockEmbedder implements driven.EmbeddingService. Texts listed in vectors
// get their own vector; everything else gets fallback.
type mockEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	fallback   []float32
	err        error
	embedCalls int
	batchCalls int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{fallback: []float32{1, 0, 0}}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.fallback
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.fallback) }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) calls() (embed, batch int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls, m.batchCalls
}

// --- Search backends ---

// mockWebSearcher implements driven.WebSearcher.
type mockWebSearcher struct {
	results []domain.WebResult
	err     error
	calls   int
	lastN   int
}

func (m *mockWebSearcher) Search(_ context.Context, _ string, n int) ([]domain.WebResult, error) {
	m.calls++
	m.lastN = n
	if m.err != nil {
		return nil, m.err
	}
	if n < len(m.results) {
		return m.results[:n], nil
	}
	return m.results, nil
}

func (m *mockWebSearcher) Name() string { return "Mock Search" }

// mockPaperSearcher implements driven.PaperSearcher.
type mockPaperSearcher struct {
	papers    []domain.Paper
	err       error
	calls     int
	lastQuery domain.PaperQuery
}

func (m *mockPaperSearcher) Search(_ context.Context, q domain.PaperQuery) ([]domain.Paper, error) {
	m.calls++
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	return m.papers, nil
}

// --- Prompts and logs ---

// mockPrompts implements driven.PromptStore using the embedded defaults.
type mockPrompts struct {
	err error
}

func (m *mockPrompts) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := file.DefaultPrompt(name)
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// mockDecisionLog implements driven.DecisionLog in memory.
type mockDecisionLog struct {
	mu        sync.Mutex
	entries   []domain.LogEntry
	raws      []domain.RawDecision
	recordErr error
	rawErr    error
	tailErr   error
	lastLimit int
}

func (m *mockDecisionLog) Record(_ context.Context, entry domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockDecisionLog) Tail(_ context.Context, limit int) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.tailErr != nil {
		return nil, m.tailErr
	}
	out := make([]domain.LogEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockDecisionLog) AppendRaw(_ context.Context, raw domain.RawDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rawErr != nil {
		return m.rawErr
	}
	m.raws = append(m.raws, raw)
	return nil
}

func (m *mockDecisionLog) rawCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.raws)
}

// --- Ingestion ---

// mockExtractor implements driven.TextExtractor.
type mockExtractor struct {
	mu    sync.Mutex
	text  string
	texts map[string]string
	err   error
	block chan struct{}
	calls int
}

func (m *mockExtractor) Extract(ctx context.Context, path string) (string, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if text, ok := m.texts[path]; ok {
		return text, nil
	}
	return m.text, nil
}

// mockChunker implements driven.Chunker by splitting on blank lines.
type mockChunker struct {
	err error
}

func (m *mockChunker) Chunk(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	var chunks []domain.Chunk
	for _, part := range strings.Split(doc.Content, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, seq),
			DocumentID: doc.ID,
			Sequence:   seq,
			Content:    part,
		})
	}
	return chunks, nil
}

// mockValidator implements driven.ProviderValidator.
type mockValidator struct {
	embedErr error
	llmErr   error
	lastLLM  domain.LLMSettings
}

func (m *mockValidator) ValidateEmbedding(_ context.Context, _ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockValidator) ValidateLLM(_ context.Context, cfg *domain.LLMSettings) error {
	m.lastLLM = *cfg
	return m.llmErr
}

// mockAnswerer implements driving.Answerer with a fixed reply.
type mockAnswerer struct {
	kind   domain.AgentKind
	answer string
	trace  domain.Trace
	calls  int
}

func (m *mockAnswerer) Kind() domain.AgentKind { return m.kind }

func (m *mockAnswerer) Answer(_ context.Context, q domain.Query) (string, domain.Trace) {
	m.calls++
	trace := m.trace
	trace.Query = q.Text
	return m.answer, trace
}
