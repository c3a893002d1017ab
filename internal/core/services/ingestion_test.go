package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/retry"
)

const threeParagraphs = "alpha section\n\nbeta section\n\ngamma section"

type ingestionFixture struct {
	service   *IngestionService
	extractor *mockExtractor
	embedder  *mockEmbedder
	index     *memory.DocumentIndex
	statuses  *memory.StatusStore
}

func newIngestionFixture(t *testing.T, text string) *ingestionFixture {
	t.Helper()
	f := &ingestionFixture{
		extractor: &mockExtractor{text: text},
		embedder:  newMockEmbedder(),
		index:     memory.NewDocumentIndex(0),
		statuses:  memory.NewStatusStore(),
	}
	f.service = NewIngestionService(f.extractor, &mockChunker{}, f.embedder, f.index, f.statuses,
		IngestionConfig{Workers: 2, QueueSize: 4})
	f.service.SetRetryPolicy(noRetry)
	t.Cleanup(func() { _ = f.service.Close() })
	return f
}

func TestIngestionService_Ingest_Success(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)

	result := f.service.Ingest(context.Background(), "/tmp/report.pdf", "doc-1")

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, 3, result.ChunksCount)
	assert.Equal(t, "Ingested 3 chunks for doc_id: doc-1", result.Message)
	assert.Equal(t, 3, f.index.Count())
	assert.Equal(t, []string{"doc-1"}, f.index.Documents())

	_, batch := f.embedder.calls()
	assert.Equal(t, 1, batch, "all chunks embedded in one batch")

	hits, err := f.index.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i, hit := range hits {
		assert.Equal(t, domain.ChunkID("doc-1", i), hit.Chunk.ID)
		assert.Equal(t, i, hit.Chunk.Sequence)
		assert.Equal(t, domain.ProvenancePDFUpload, hit.Chunk.Provenance)
	}

	status, err := f.service.Status(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionCompleted, status.State)
	assert.Equal(t, 3, status.ChunkCount)
	assert.Equal(t, "report.pdf", status.Filename)
}

func TestIngestionService_Ingest_Failures(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		extractErr  error
		embedErr    error
		docID       string
		wantMessage string
		wantEmbed   bool
	}{
		{
			name:        "blank text",
			text:        "  \n\n ",
			docID:       "doc-1",
			wantMessage: MessageNoText,
		},
		{
			name:        "extraction error",
			extractErr:  domain.ErrExtraction,
			docID:       "doc-1",
			wantMessage: "Ingestion failed: extraction failed",
		},
		{
			name:        "embedding error",
			text:        threeParagraphs,
			embedErr:    domain.ErrEmbeddingUnavailable,
			docID:       "doc-1",
			wantMessage: "Ingestion failed: embed: embedding service unavailable",
			wantEmbed:   true,
		},
		{
			name:        "missing document id",
			text:        threeParagraphs,
			wantMessage: "Ingestion failed: invalid input: document id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestionFixture(t, tt.text)
			f.extractor.err = tt.extractErr
			f.embedder.err = tt.embedErr

			result := f.service.Ingest(context.Background(), "/tmp/a.pdf", tt.docID)

			assert.False(t, result.OK())
			assert.Equal(t, domain.IngestError, result.Status)
			assert.Zero(t, result.ChunksCount)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.Zero(t, f.index.Count(), "index holds nothing for a failed ingestion")

			_, batch := f.embedder.calls()
			assert.Equal(t, tt.wantEmbed, batch > 0)
		})
	}
}

func TestIngestionService_Ingest_DimensionMismatchLeavesIndexUnchanged(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	f.index = memory.NewDocumentIndex(4)
	f.service = NewIngestionService(f.extractor, &mockChunker{}, f.embedder, f.index, nil, IngestionConfig{})
	f.service.SetRetryPolicy(noRetry)
	defer f.service.Close()

	result := f.service.Ingest(context.Background(), "/tmp/a.pdf", "doc-1")

	assert.False(t, result.OK())
	assert.Contains(t, result.Message, "Ingestion failed: index:")
	assert.Zero(t, f.index.Count())
}

func TestIngestionService_ZeroConfigKeepsRetryBackoff(t *testing.T) {
	s := NewIngestionService(&mockExtractor{}, &mockChunker{}, newMockEmbedder(), memory.NewDocumentIndex(0), nil, IngestionConfig{})
	defer s.Close()

	assert.Equal(t, retry.DefaultAttempts, s.policy.Attempts)
	assert.Equal(t, retry.DefaultDelay, s.policy.Delay)
}

func TestIngestionService_Ingest_ReplacesExistingDocument(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	ctx := context.Background()

	require.True(t, f.service.Ingest(ctx, "/tmp/a.pdf", "doc-1").OK())
	f.extractor.text = "only one section"
	result := f.service.Ingest(ctx, "/tmp/a.pdf", "doc-1")

	require.True(t, result.OK())
	assert.Equal(t, 1, f.index.Count(), "old chunks removed before add")
	assert.Equal(t, 1, f.index.ChunkCount("doc-1"))
}

func TestIngestionService_Ingest_FailedReplaceKeepsExistingDocument(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	ctx := context.Background()

	require.True(t, f.service.Ingest(ctx, "/tmp/a.pdf", "doc-1").OK())
	before, err := f.index.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)

	f.embedder.fallback = []float32{1, 0, 0, 0}
	f.extractor.text = "only one section"
	result := f.service.Ingest(ctx, "/tmp/a.pdf", "doc-1")

	assert.False(t, result.OK())
	assert.Contains(t, result.Message, "Ingestion failed: index:")
	assert.Equal(t, 3, f.index.ChunkCount("doc-1"))
	after, err := f.index.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIngestionService_Ingest_NewIDGivesDisjointChunks(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	ctx := context.Background()
	retriever := newRetrievalAnswerer(f.index, f.embedder, &mockLLM{reply: "answer"})
	scoped := domain.Query{Text: "what does it say", DocumentID: "upload_1_aaaaaaaa"}

	first := f.service.Ingest(ctx, "/tmp/a.pdf", "upload_1_aaaaaaaa")
	require.True(t, first.OK())
	_, before := retriever.Answer(ctx, scoped)

	second := f.service.Ingest(ctx, "/tmp/a.pdf", "upload_2_bbbbbbbb")
	require.True(t, second.OK())
	_, after := retriever.Answer(ctx, scoped)

	assert.Equal(t, first.ChunksCount, second.ChunksCount)
	assert.Equal(t, 3, f.index.ChunkCount("upload_1_aaaaaaaa"))
	assert.Equal(t, 3, f.index.ChunkCount("upload_2_bbbbbbbb"))
	assert.Equal(t, 6, f.index.Count())

	hits, err := f.index.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, hit := range hits {
		assert.False(t, ids[hit.Chunk.ID], "chunk id %s duplicated", hit.Chunk.ID)
		ids[hit.Chunk.ID] = true
	}

	require.Empty(t, before.Error)
	require.Len(t, before.RetrievedDocs, 3)
	assert.Equal(t, before.RetrievedDocs, after.RetrievedDocs)
	for _, doc := range after.RetrievedDocs {
		assert.Equal(t, "upload_1_aaaaaaaa", doc.DocID)
	}
}

func TestIngestionService_Submit_CompletesInBackground(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	ctx := context.Background()

	require.NoError(t, f.service.Submit(ctx, "/tmp/uploads/1_report.pdf", "doc-1", "report.pdf"))
	require.NoError(t, f.service.Close())

	status, err := f.service.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionCompleted, status.State)
	assert.Equal(t, 3, status.ChunkCount)
	assert.Equal(t, "report.pdf", status.Filename)
	assert.Equal(t, "Ingested 3 chunks for doc_id: doc-1", status.Message)
	assert.Equal(t, 3, f.index.Count())
}

func TestIngestionService_Submit_FailureRecorded(t *testing.T) {
	f := newIngestionFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.service.Submit(ctx, "/tmp/empty.pdf", "doc-1", ""))
	require.NoError(t, f.service.Close())

	status, err := f.service.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionFailed, status.State)
	assert.Equal(t, MessageNoText, status.Message)
	assert.Equal(t, "empty.pdf", status.Filename)
}

func TestIngestionService_Submit_DuplicateInFlight(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	f.extractor.block = make(chan struct{})
	ctx := context.Background()

	require.NoError(t, f.service.Submit(ctx, "/tmp/a.pdf", "doc-1", "a.pdf"))

	err := f.service.Submit(ctx, "/tmp/a.pdf", "doc-1", "a.pdf")
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	result := f.service.Ingest(ctx, "/tmp/a.pdf", "doc-1")
	assert.False(t, result.OK())
	assert.Contains(t, result.Message, "already exists")

	status, err := f.service.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionProcessing, status.State)

	close(f.extractor.block)
	require.NoError(t, f.service.Close())

	status, err = f.service.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionCompleted, status.State)
}

func TestIngestionService_Submit_AfterClose(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)
	require.NoError(t, f.service.Close())
	require.NoError(t, f.service.Close(), "close is idempotent")

	err := f.service.Submit(context.Background(), "/tmp/a.pdf", "doc-1", "")
	assert.ErrorIs(t, err, ErrIngestionClosed)
}

func TestIngestionService_Status_NotFound(t *testing.T) {
	f := newIngestionFixture(t, threeParagraphs)

	_, err := f.service.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
