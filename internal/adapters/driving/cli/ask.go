package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triage/internal/core/domain"
)

var (
	askDocID string
	askAgent string
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Routes a question to the best agent and prints the answer.

Use --doc to scope document retrieval to one ingested PDF, or --agent to skip
routing and force an agent (retrieval, web or paper; legacy names such as
pdf_rag and arxiv are accepted).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askDocID, "doc", "", "restrict retrieval to this document id")
	askCmd.Flags().StringVar(&askAgent, "agent", "", "force an agent instead of routing")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	q := domain.Query{
		Text:        strings.Join(args, " "),
		DocumentID:  askDocID,
		ForcedAgent: askAgent,
	}

	result, err := askService.Ask(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	renderAnswer(cmd.OutOrStdout(), result)
	return nil
}

func renderAnswer(w io.Writer, r *domain.AskResult) {
	fmt.Fprintf(w, "%s %s\n\n", ui.Agent(r.AgentUsed).Render("["+r.AgentUsed.String()+"]"), ui.Muted.Render(r.Rationale))
	fmt.Fprintln(w, r.Answer)

	t := r.Trace
	if len(t.Sources) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Label.Render("Sources"))
		for _, s := range t.Sources {
			fmt.Fprintf(w, "  %d. %s %s\n", s.Position, s.Title, ui.Muted.Render(s.Link))
		}
	}
	if len(t.Papers) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Label.Render("Papers"))
		for i, p := range t.Papers {
			fmt.Fprintf(w, "  %d. %s (%s) %s\n", i+1, p.Title, p.Published, ui.Muted.Render(p.URL))
		}
	}
	if len(t.RetrievedDocs) > 0 {
		fmt.Fprintf(w, "\n%s %d chunks, filter %s\n", ui.Label.Render("Context"), len(t.RetrievedDocs), t.RetrieverFilter)
	}
	if t.HasError() {
		fmt.Fprintf(w, "\n%s %s\n", ui.Warning.Render("Error:"), t.Error)
	}
	if t.Duration > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Muted.Render(fmt.Sprintf("took %.2fs", t.Duration)))
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
