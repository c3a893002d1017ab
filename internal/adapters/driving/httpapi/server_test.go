package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

type fixture struct {
	server    *Server
	ask       *mockAskService
	ingestion *mockIngestionService
	docs      *mockDocumentService
	logs      *mockLogService
	uploadDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ask: &mockAskService{result: &domain.AskResult{
			Answer:    "42",
			AgentUsed: domain.AgentWeb,
			Rationale: "Rule: general web query indicators",
		}},
		ingestion: &mockIngestionService{
			result: domain.IngestResult{Status: domain.IngestSuccess, ChunksCount: 3, Message: "Ingested 3 chunks"},
			statuses: map[string]*domain.UploadStatus{
				"upload_1_abc": {DocID: "upload_1_abc", State: domain.IngestionEmbedding, Message: "Embedding 3 chunks"},
			},
		},
		docs: &mockDocumentService{docs: []driving.DocumentSummary{
			{DocID: "doc-a", ChunkCount: 4, Filename: "a.pdf", State: domain.IngestionCompleted},
			{DocID: "doc-b", ChunkCount: 2},
			{DocID: "doc-failed", State: domain.IngestionFailed},
		}},
		logs:      &mockLogService{entries: []domain.LogEntry{{Timestamp: 2, Input: "newest"}, {Timestamp: 1, Input: "older"}}},
		uploadDir: t.TempDir(),
	}

	server, err := NewServer(&Ports{
		Ask:       f.ask,
		Ingestion: f.ingestion,
		Documents: f.docs,
		Logs:      f.logs,
	}, Config{UploadDir: f.uploadDir, MaxUploadMB: 1, Version: "test", Agents: []string{"RETRIEVAL", "WEB"}})
	require.NoError(t, err)
	server.now = func() time.Time { return time.Unix(1700000000, 0) }
	f.server = server
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func uploadRequest(t *testing.T, filename, contentType string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestNewServer_ValidatesPorts(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{name: "no ask", ports: &Ports{}, want: ErrMissingAskService},
		{name: "no ingestion", ports: &Ports{Ask: &mockAskService{}}, want: ErrMissingIngestionService},
		{
			name:  "no documents",
			ports: &Ports{Ask: &mockAskService{}, Ingestion: &mockIngestionService{}},
			want:  ErrMissingDocumentService,
		},
		{
			name:  "no logs",
			ports: &Ports{Ask: &mockAskService{}, Ingestion: &mockIngestionService{}, Documents: &mockDocumentService{}},
			want:  ErrMissingLogService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.ports, Config{})
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, server)
		})
	}
}

func TestAsk(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"text":"who won","document_id":"doc-a","forced_agent":"web"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "42", body["answer"])
	assert.Equal(t, "WEB", body["agent_used"])
	assert.Equal(t, domain.Query{Text: "who won", DocumentID: "doc-a", ForcedAgent: "web"}, f.ask.last)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAsk_LegacyFieldNames(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"text":"summarize","pdf_doc_id":"doc-a","prefer_agent":"PDF_RAG"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-a", f.ask.last.DocumentID)
	assert.Equal(t, "PDF_RAG", f.ask.last.ForcedAgent)
}

func TestAsk_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "blank text", body: `{"text":"   "}`},
		{name: "malformed json", body: `{"text":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := f.do(req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body errorBody
			decode(t, rec, &body)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestUpload_Inline(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"), nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body uploadResponse
	decode(t, rec, &body)
	assert.Equal(t, "success", body.Status)
	assert.Regexp(t, regexp.MustCompile(`^upload_1700000000_[0-9a-f]{8}$`), body.DocID)
	assert.Equal(t, "report.pdf", body.Filename)
	assert.Equal(t, "PDF uploaded and ingested successfully. 3 chunks created.", body.Message)
	require.NotNil(t, body.IngestionDetails)
	assert.Equal(t, 3, body.IngestionDetails.ChunksCount)

	saved := filepath.Join(f.uploadDir, "1700000000_report.pdf")
	assert.Equal(t, []string{saved}, f.ingestion.ingested)
	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))
}

func TestUpload_InlineFailureRemovesFile(t *testing.T) {
	f := newFixture(t)
	f.ingestion.result = domain.IngestResult{Status: domain.IngestError, Message: "No text extracted from PDF"}

	rec := f.do(uploadRequest(t, "empty.pdf", "application/pdf", []byte("%PDF"), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "No text extracted from PDF", body.Detail)
	_, err := os.Stat(filepath.Join(f.uploadDir, "1700000000_empty.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpload_Async(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "paper.pdf", "application/pdf", []byte("%PDF"), map[string]string{"async": "true"}))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var body uploadResponse
	decode(t, rec, &body)
	assert.Equal(t, "processing", body.Status)
	assert.Nil(t, body.IngestionDetails)
	assert.Empty(t, f.ingestion.ingested)
	assert.Equal(t, []string{"paper.pdf"}, f.ingestion.filenames)
}

func TestUpload_AsyncDuplicate(t *testing.T) {
	f := newFixture(t)
	f.ingestion.submitErr = domain.ErrAlreadyExists

	rec := f.do(uploadRequest(t, "paper.pdf", "application/pdf", []byte("%PDF"), map[string]string{"async": "1"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int
		fields      map[string]string
	}{
		{name: "missing file"},
		{name: "not a pdf", filename: "notes.txt", contentType: "text/plain", size: 10},
		{name: "too large", filename: "big.pdf", contentType: "application/pdf", size: 1024*1024 + 1},
		{name: "bad async flag", filename: "a.pdf", contentType: "application/pdf", size: 10, fields: map[string]string{"async": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(uploadRequest(t, tt.filename, tt.contentType, bytes.Repeat([]byte("x"), tt.size), tt.fields))

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Empty(t, f.ingestion.ingested)
			assert.Empty(t, f.ingestion.submitted)
		})
	}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantErr     string
	}{
		{name: "valid", filename: "report.pdf", contentType: "application/pdf", size: 100},
		{name: "exactly max", filename: "report.pdf", contentType: "application/pdf", size: 10 * 1024 * 1024},
		{name: "wrong type", filename: "report.pdf", contentType: "application/octet-stream", wantErr: "only PDF"},
		{name: "over max", filename: "report.pdf", contentType: "application/pdf", size: 10*1024*1024 + 1, wantErr: "max size is 10 MB"},
		{name: "dot dot", filename: "..report.pdf", contentType: "application/pdf", wantErr: "invalid filename"},
		{name: "slash", filename: "a/b.pdf", contentType: "application/pdf", wantErr: "invalid filename"},
		{name: "backslash", filename: `a\b.pdf`, contentType: "application/pdf", wantErr: "invalid filename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.contentType, tt.size, 10)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewDocID_Unique(t *testing.T) {
	a := NewDocID("upload", 1700000000)
	b := NewDocID("upload", 1700000000)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "upload_1700000000_"))
}

func TestUploadStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/upload/status/upload_1_abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.UploadStatus
	decode(t, rec, &status)
	assert.Equal(t, domain.IngestionEmbedding, status.State)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/upload/status/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocuments(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list documentsResponse
	decode(t, rec, &list)
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, "a.pdf", list.Documents[0].Filename)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/documents/doc-b", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"doc-b"}, f.docs.deleted)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/documents/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogs(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{name: "default", query: "", wantCode: http.StatusOK, wantLimit: 0},
		{name: "explicit", query: "?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{name: "not a number", query: "?limit=ten", wantCode: http.StatusBadRequest},
		{name: "negative", query: "?limit=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(httptest.NewRequest(http.MethodGet, "/logs"+tt.query, nil))

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantLimit, f.logs.lastLimit)
			var body logsResponse
			decode(t, rec, &body)
			require.Len(t, body.Logs, 2)
			assert.Equal(t, "newest", body.Logs[0].Input)
		})
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Equal(t, 6, body.IndexSize)
	assert.Equal(t, 2, body.Documents)
	assert.Equal(t, []string{"RETRIEVAL", "WEB"}, body.Agents)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidInput))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrAlreadyExists))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrEmbeddingUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrUpstream))
}
