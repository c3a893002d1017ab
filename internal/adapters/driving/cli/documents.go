package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List ingested documents",
	Args:    cobra.NoArgs,
	RunE:    runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:     "delete [doc-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a document and its chunks",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentsDelete,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	out := cmd.OutOrStdout()
	if documentsJSON {
		return writeJSON(out, docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents ingested.")
		return nil
	}

	fmt.Fprintln(out, ui.Title.Render(fmt.Sprintf("Documents (%d)", len(docs))))
	for _, d := range docs {
		name := d.Filename
		if name == "" {
			name = "-"
		}
		state := string(d.State)
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(out, "  %s  %s  %d chunks  %s\n", ui.Label.Render(d.DocID), name, d.ChunkCount, ui.Muted.Render(state))
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
