package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triage/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/triage/internal/adapters/driving/watch"
	"github.com/custodia-labs/triage/internal/logger"
)

var (
	serveAddr     string
	serveWatchDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API:

  POST   /ask                    route and answer a question
  POST   /upload                 upload a PDF (multipart "file", optional async=true)
  GET    /upload/status/:doc_id  background ingestion progress
  GET    /documents              list ingested documents
  DELETE /documents/:doc_id      delete a document
  GET    /logs?limit=N           recent routing decisions
  GET    /health                 liveness and index size

With --watch-dir, PDFs copied into that directory are ingested in the
background as well.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to server.addr)")
	serveCmd.Flags().StringVar(&serveWatchDir, "watch-dir", "", "directory to watch for new PDFs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ports := &httpapi.Ports{
		Ask:       askService,
		Ingestion: ingestionService,
		Documents: documentService,
		Logs:      decisionLogService,
	}
	server, err := httpapi.NewServer(ports, httpapi.Config{
		UploadDir:   serveConfig.UploadDir,
		MaxUploadMB: serveConfig.MaxUploadMB,
		Version:     version,
		Agents:      serveConfig.Agents,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = serveConfig.Addr
	}
	if addr == "" {
		return errors.New("no listen address: pass --addr or set server.addr")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	if serveWatchDir != "" {
		w, err := watch.New(serveWatchDir, ingestionService, watch.DefaultDebounce)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", serveWatchDir, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped: %v", err)
			}
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for new PDFs\n", serveWatchDir)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "triage API listening on %s\n", addr)
	err = server.Run(ctx, addr)
	cancel()
	wg.Wait()
	return err
}
