package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triage/internal/adapters/driving/httpapi"
)

var ingestDocID string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf]",
	Short: "Ingest a PDF into the document index",
	Long: `Extracts, chunks and embeds a PDF synchronously so it can be used by the
retrieval agent. A doc id is generated unless --doc-id is given; ingesting
again under the same id replaces the document's chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document id (generated if empty)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%s is not a PDF", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	docID := strings.TrimSpace(ingestDocID)
	if docID == "" {
		docID = httpapi.NewDocID("cli", time.Now().Unix())
	}

	result := ingestionService.Ingest(cmd.Context(), path, docID)
	if !result.OK() {
		return fmt.Errorf("ingestion failed: %s", result.Message)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", ui.Success.Render("Ingested"), filepath.Base(path))
	fmt.Fprintf(out, "  Doc ID: %s\n", docID)
	fmt.Fprintf(out, "  Chunks: %d\n", result.ChunksCount)
	return nil
}
