package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// askRequest is the body of POST /ask. pdf_doc_id and prefer_agent are
// accepted as aliases used by older clients.
type askRequest struct {
	Text        string `json:"text"`
	DocumentID  string `json:"document_id"`
	PDFDocID    string `json:"pdf_doc_id"`
	ForcedAgent string `json:"forced_agent"`
	PreferAgent string `json:"prefer_agent"`
}

func (r askRequest) query() domain.Query {
	q := domain.Query{Text: r.Text, DocumentID: r.DocumentID, ForcedAgent: r.ForcedAgent}
	if q.DocumentID == "" {
		q.DocumentID = r.PDFDocID
	}
	if q.ForcedAgent == "" {
		q.ForcedAgent = r.PreferAgent
	}
	return q
}

func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return fail(http.StatusBadRequest, "invalid JSON body")
	}

	result, err := s.ports.Ask.Ask(c.Request().Context(), req.query())
	if err != nil {
		return failErr(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleUploadStatus(c echo.Context) error {
	status, err := s.ports.Ingestion.Status(c.Request().Context(), c.Param("doc_id"))
	if err != nil {
		return failErr(err)
	}
	return c.JSON(http.StatusOK, status)
}

type documentsResponse struct {
	Documents []driving.DocumentSummary `json:"documents"`
	Count     int                       `json:"count"`
}

func (s *Server) handleListDocuments(c echo.Context) error {
	docs, err := s.ports.Documents.List(c.Request().Context())
	if err != nil {
		return failErr(err)
	}
	return c.JSON(http.StatusOK, documentsResponse{Documents: docs, Count: len(docs)})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	docID := c.Param("doc_id")
	if err := s.ports.Documents.Delete(c.Request().Context(), docID); err != nil {
		return failErr(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted", "doc_id": docID})
}

type logsResponse struct {
	Logs []domain.LogEntry `json:"logs"`
}

func (s *Server) handleLogs(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fail(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}

	entries, err := s.ports.Logs.Recent(c.Request().Context(), limit)
	if err != nil {
		return failErr(err)
	}
	return c.JSON(http.StatusOK, logsResponse{Logs: entries})
}

type healthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version,omitempty"`
	IndexSize int      `json:"index_size"`
	Documents int      `json:"documents"`
	Agents    []string `json:"agents"`
}

func (s *Server) handleHealth(c echo.Context) error {
	docs, err := s.ports.Documents.List(c.Request().Context())
	if err != nil {
		return failErr(err)
	}

	resp := healthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Agents:  s.cfg.Agents,
	}
	for _, d := range docs {
		if d.ChunkCount > 0 {
			resp.Documents++
			resp.IndexSize += d.ChunkCount
		}
	}
	if resp.Agents == nil {
		resp.Agents = []string{}
	}
	return c.JSON(http.StatusOK, resp)
}
