package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
	"github.com/custodia-labs/triage/internal/retry"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// MessageNoText is reported when a PDF yields no usable text.
const MessageNoText = "No text extracted from PDF"

// ErrIngestionClosed is returned by Submit after Close.
var ErrIngestionClosed = errors.New("ingestion service closed")

// Default worker pool sizes.
const (
	DefaultIngestionWorkers   = 2
	DefaultIngestionQueueSize = 16
)

// metadataProvenance is the document metadata key the chunker copies onto chunks.
const metadataProvenance = "provenance"

// IngestionConfig configures the ingestion worker pool.
type IngestionConfig struct {
	Workers   int
	QueueSize int
	Retry     domain.RetrySettings
}

type ingestJob struct {
	path     string
	docID    string
	filename string
}

// IngestionService turns PDFs into embedded chunks in the document index.
//
// Ingest runs inline. Submit queues the same work on a bounded worker pool
// and tracks progress in the status store. At most one job per document id
// runs at a time.
type IngestionService struct {
	extractor driven.TextExtractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.DocumentIndex
	statuses  driven.StatusStore
	policy    retry.Policy

	jobs chan ingestJob
	wg   sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewIngestionService creates the service and starts its workers.
// statuses may be nil, in which case no progress is recorded.
func NewIngestionService(
	extractor driven.TextExtractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.DocumentIndex,
	statuses driven.StatusStore,
	cfg IngestionConfig,
) *IngestionService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultIngestionWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultIngestionQueueSize
	}

	s := &IngestionService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		statuses:  statuses,
		policy:    retry.FromSettings("embed", cfg.Retry),
		jobs:      make(chan ingestJob, cfg.QueueSize),
		inflight:  make(map[string]struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// SetRetryPolicy overrides the retry policy used for embedding calls.
func (s *IngestionService) SetRetryPolicy(p retry.Policy) {
	p.Name = "embed"
	s.policy = p
}

// Ingest extracts, chunks, embeds and indexes the PDF at path under docID.
// It never returns an error; failures are reported in the result.
func (s *IngestionService) Ingest(ctx context.Context, path, docID string) domain.IngestResult {
	if err := s.claim(docID); err != nil {
		return failure(err)
	}
	defer s.release(docID)

	return s.run(ctx, ingestJob{path: path, docID: docID, filename: filepath.Base(path)})
}

// Submit queues path for background ingestion and returns once the job is
// accepted. A second submit for a document id still in flight fails with
// domain.ErrAlreadyExists.
func (s *IngestionService) Submit(ctx context.Context, path, docID, filename string) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrIngestionClosed
	}

	if err := s.claim(docID); err != nil {
		return err
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	job := ingestJob{path: path, docID: docID, filename: filename}
	s.setStatus(ctx, job, domain.IngestionProcessing, "Queued for processing", 0)

	select {
	case s.jobs <- job:
		logger.Debug("ingest %s: queued %s", docID, path)
		return nil
	case <-ctx.Done():
		s.release(docID)
		s.setStatus(context.Background(), job, domain.IngestionFailed, "Ingestion failed: "+ctx.Err().Error(), 0)
		return ctx.Err()
	}
}

// Status returns the latest recorded progress for docID.
func (s *IngestionService) Status(ctx context.Context, docID string) (*domain.UploadStatus, error) {
	if s.statuses == nil {
		return nil, fmt.Errorf("%w: upload status %s", domain.ErrNotFound, docID)
	}
	return s.statuses.Get(ctx, docID)
}

// Close stops accepting jobs and waits for queued ones to finish.
func (s *IngestionService) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.closeMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *IngestionService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		result := s.run(context.Background(), job)
		s.release(job.docID)
		logger.Info("ingest %s: %s", job.docID, result.Message)
	}
}

// run performs one ingestion and records every state transition.
func (s *IngestionService) run(ctx context.Context, job ingestJob) domain.IngestResult {
	done := logger.Timed("ingest " + job.docID)
	defer done()

	s.setStatus(ctx, job, domain.IngestionProcessing, "Extracting text", 0)

	result := s.ingest(ctx, job, func(n int) {
		s.setStatus(ctx, job, domain.IngestionEmbedding, fmt.Sprintf("Embedding %d chunks", n), n)
	})

	if result.OK() {
		s.setStatus(ctx, job, domain.IngestionCompleted, result.Message, result.ChunksCount)
	} else {
		s.setStatus(ctx, job, domain.IngestionFailed, result.Message, 0)
	}
	return result
}

func (s *IngestionService) ingest(ctx context.Context, job ingestJob, onEmbedding func(n int)) domain.IngestResult {
	text, err := s.extractor.Extract(ctx, job.path)
	if err != nil {
		return failure(err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.IngestResult{Status: domain.IngestError, Message: MessageNoText}
	}

	doc := &domain.Document{
		ID:        job.docID,
		Title:     job.filename,
		Path:      job.path,
		Content:   text,
		Metadata:  map[string]any{metadataProvenance: domain.ProvenancePDFUpload},
		CreatedAt: time.Now(),
	}

	chunks, err := s.chunker.Chunk(ctx, doc)
	if err != nil {
		return failure(fmt.Errorf("chunk: %w", err))
	}
	if len(chunks) == 0 {
		return domain.IngestResult{Status: domain.IngestError, Message: MessageNoText}
	}

	onEmbedding(len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([][]float32, error) {
		return s.embedder.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return failure(fmt.Errorf("embed: %w", err))
	}
	if len(vectors) != len(chunks) {
		return failure(fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
			domain.ErrUpstream, len(vectors), len(chunks)))
	}

	for i := range chunks {
		chunks[i].DocumentID = job.docID
		chunks[i].Sequence = i
		chunks[i].ID = domain.ChunkID(job.docID, i)
		chunks[i].Provenance = domain.ProvenancePDFUpload
		chunks[i].Embedding = vectors[i]
	}

	if existing := s.index.ChunkCount(job.docID); existing > 0 {
		logger.Debug("ingest %s: replacing %d existing chunks", job.docID, existing)
	}
	if err := s.index.Replace(ctx, job.docID, chunks); err != nil {
		return failure(fmt.Errorf("index: %w", err))
	}

	return domain.IngestResult{
		Status:      domain.IngestSuccess,
		ChunksCount: len(chunks),
		Message:     fmt.Sprintf("Ingested %d chunks for doc_id: %s", len(chunks), job.docID),
	}
}

// claim marks docID as in flight.
func (s *IngestionService) claim(docID string) error {
	if strings.TrimSpace(docID) == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[docID]; busy {
		return fmt.Errorf("%w: ingestion already in progress for %s", domain.ErrAlreadyExists, docID)
	}
	s.inflight[docID] = struct{}{}
	return nil
}

func (s *IngestionService) release(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, docID)
}

func (s *IngestionService) setStatus(
	ctx context.Context,
	job ingestJob,
	state domain.IngestionState,
	message string,
	chunks int,
) {
	if s.statuses == nil {
		return
	}
	err := s.statuses.Put(ctx, domain.UploadStatus{
		DocID:      job.docID,
		State:      state,
		Message:    message,
		ChunkCount: chunks,
		Filename:   job.filename,
		UpdatedAt:  time.Now(),
	})
	if err != nil {
		logger.Warn("ingest %s: record status %s: %v", job.docID, state, err)
	}
}

func failure(err error) domain.IngestResult {
	return domain.IngestResult{
		Status:  domain.IngestError,
		Message: "Ingestion failed: " + err.Error(),
	}
}
