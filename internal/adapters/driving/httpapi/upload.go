package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/logger"
)

const pdfContentType = "application/pdf"

// uploadResponse is returned by POST /upload.
type uploadResponse struct {
	Status           string               `json:"status"`
	DocID            string               `json:"doc_id"`
	Filename         string               `json:"filename"`
	Message          string               `json:"message"`
	IngestionDetails *domain.IngestResult `json:"ingestion_details,omitempty"`
}

// NewDocID returns an upload doc id for the given epoch second. The random
// suffix keeps ids unique within one second.
func NewDocID(prefix string, ts int64) string {
	return fmt.Sprintf("%s_%d_%s", prefix, ts, uuid.NewString()[:8])
}

// ValidateUpload checks the content type, size and filename of an upload.
func ValidateUpload(filename, contentType string, size int64, maxMB int) error {
	if contentType != pdfContentType {
		return fmt.Errorf("%w: only PDF uploads are allowed", domain.ErrInvalidInput)
	}
	if size > int64(maxMB)*1024*1024 {
		return fmt.Errorf("%w: file too large, max size is %d MB", domain.ErrInvalidInput, maxMB)
	}
	if filename == "" || strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: invalid filename", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(http.StatusBadRequest, "file is required")
	}
	if err := ValidateUpload(fh.Filename, fh.Header.Get(echo.HeaderContentType), fh.Size, s.cfg.MaxUploadMB); err != nil {
		return failErr(err)
	}

	async := false
	if raw := c.FormValue("async"); raw != "" {
		async, err = strconv.ParseBool(raw)
		if err != nil {
			return fail(http.StatusBadRequest, "async must be a boolean")
		}
	}

	ts := s.now().Unix()
	docID := NewDocID("upload", ts)
	dest := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%d_%s", ts, fh.Filename))
	if err := saveUpload(fh, dest); err != nil {
		logger.Error("upload: save %s: %v", dest, err)
		return fail(http.StatusInternalServerError, "could not store upload")
	}

	ctx := c.Request().Context()
	if async {
		if err := s.ports.Ingestion.Submit(ctx, dest, docID, fh.Filename); err != nil {
			removeUpload(dest)
			return failErr(err)
		}
		return c.JSON(http.StatusAccepted, uploadResponse{
			Status:   string(domain.IngestionProcessing),
			DocID:    docID,
			Filename: fh.Filename,
			Message:  "Upload accepted. Poll /upload/status/" + docID + " for progress.",
		})
	}

	result := s.ports.Ingestion.Ingest(ctx, dest, docID)
	if !result.OK() {
		removeUpload(dest)
		return fail(http.StatusInternalServerError, result.Message)
	}
	return c.JSON(http.StatusCreated, uploadResponse{
		Status:           string(domain.IngestSuccess),
		DocID:            docID,
		Filename:         fh.Filename,
		Message:          fmt.Sprintf("PDF uploaded and ingested successfully. %d chunks created.", result.ChunksCount),
		IngestionDetails: &result,
	})
}

func saveUpload(fh *multipart.FileHeader, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		removeUpload(dest)
		return err
	}
	return dst.Close()
}

func removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("upload: remove %s: %v", path, err)
	}
}
