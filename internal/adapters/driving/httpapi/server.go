// Package httpapi serves the triage API over HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/triage/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Config holds HTTP server settings.
type Config struct {
	// UploadDir receives uploaded PDFs.
	UploadDir string

	// MaxUploadMB caps the size of an uploaded file.
	MaxUploadMB int

	// Version is reported by /health.
	Version string

	// Agents lists the answerers that are configured, for /health.
	Agents []string
}

// Server is the HTTP API.
type Server struct {
	ports *Ports
	cfg   Config
	echo  *echo.Echo
	now   func() time.Time
}

// NewServer creates a server with all routes registered.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "data/uploads"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	s := &Server{ports: ports, cfg: cfg, echo: e, now: time.Now}
	s.useMiddleware()
	s.routes()
	return s, nil
}

func (s *Server) useMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	// Multipart framing adds a little on top of the file itself.
	s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", s.cfg.MaxUploadMB+1)))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http: %s %s %d %s [%s]", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
}

func (s *Server) routes() {
	s.echo.POST("/ask", s.handleAsk)
	s.echo.POST("/upload", s.handleUpload)
	s.echo.GET("/upload/status/:doc_id", s.handleUploadStatus)
	s.echo.GET("/documents", s.handleListDocuments)
	s.echo.DELETE("/documents/:doc_id", s.handleDeleteDocument)
	s.echo.GET("/logs", s.handleLogs)
	s.echo.GET("/health", s.handleHealth)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
