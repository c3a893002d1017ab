package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// mockAskService returns a canned result and records the query.
type mockAskService struct {
	result *domain.AskResult
	err    error
	last   domain.Query
}

func (m *mockAskService) Ask(_ context.Context, q domain.Query) (*domain.AskResult, error) {
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockIngestionService records synchronous ingestions.
type mockIngestionService struct {
	result   domain.IngestResult
	paths    []string
	docIDs   []string
	statuses map[string]*domain.UploadStatus
}

func (m *mockIngestionService) Ingest(_ context.Context, path, docID string) domain.IngestResult {
	m.paths = append(m.paths, path)
	m.docIDs = append(m.docIDs, docID)
	return m.result
}

func (m *mockIngestionService) Submit(context.Context, string, string, string) error { return nil }

func (m *mockIngestionService) Status(_ context.Context, docID string) (*domain.UploadStatus, error) {
	if st, ok := m.statuses[docID]; ok {
		return st, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockIngestionService) Close() error { return nil }

// mockDocumentService serves a fixed document list.
type mockDocumentService struct {
	docs    []driving.DocumentSummary
	err     error
	deleted []string
}

func (m *mockDocumentService) List(context.Context) ([]driving.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, docID string) error {
	for _, d := range m.docs {
		if d.DocID == docID {
			m.deleted = append(m.deleted, docID)
			return nil
		}
	}
	return fmt.Errorf("%w: document %s", domain.ErrNotFound, docID)
}

// mockLogService returns fixed entries and records the limit.
type mockLogService struct {
	entries   []domain.LogEntry
	err       error
	lastLimit int
}

func (m *mockLogService) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetWebBackend(b domain.WebBackend, apiKey string) error {
	m.settings.Web = domain.WebSettings{Backend: b, SerpAPIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig(context.Context) error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig(context.Context) error { return m.pingErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ask       *mockAskService
	ingestion *mockIngestionService
	documents *mockDocumentService
	logs      *mockLogService
	settings  *mockSettingsService
}

// setupTestServices installs mocks and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ask: &mockAskService{result: &domain.AskResult{
			Answer:    "Mock answer",
			AgentUsed: domain.AgentWeb,
			Rationale: "Rule: web search keywords",
		}},
		ingestion: &mockIngestionService{result: domain.IngestResult{Status: domain.IngestSuccess, ChunksCount: 4}},
		documents: &mockDocumentService{},
		logs:      &mockLogService{},
		settings:  newMockSettingsService(),
	}
	SetServices(Services{
		Ask:       ts.ask,
		Ingestion: ts.ingestion,
		Documents: ts.documents,
		Logs:      ts.logs,
		Settings:  ts.settings,
	})
	return ts, func() { SetServices(Services{}) }
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// between Execute calls on the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(stdin string, args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
