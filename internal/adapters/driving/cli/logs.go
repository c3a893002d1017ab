package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/triage/internal/core/domain"
)

const logsSheet = "Decisions"

var (
	logsLimit int
	logsJSON  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent routing decisions",
	Long:  `Shows the most recent entries of the decision log, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

var logsExportCmd = &cobra.Command{
	Use:   "export [file.xlsx]",
	Short: "Export the decision log to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogsExport,
}

func init() {
	logsCmd.PersistentFlags().IntVarP(&logsLimit, "limit", "n", 20, "maximum number of entries")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "output entries as JSON")
	logsCmd.AddCommand(logsExportCmd)
	rootCmd.AddCommand(logsCmd)
}

func recentLogs(cmd *cobra.Command) ([]domain.LogEntry, error) {
	if decisionLogService == nil {
		return nil, errors.New("decision log service not configured")
	}
	entries, err := decisionLogService.Recent(cmd.Context(), logsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision log: %w", err)
	}
	return entries, nil
}

func runLogs(cmd *cobra.Command, _ []string) error {
	entries, err := recentLogs(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if logsJSON {
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No decisions logged yet.")
		return nil
	}

	for _, e := range entries {
		ts := time.Unix(e.Timestamp, 0).Format(time.DateTime)
		fmt.Fprintf(out, "%s %s %s\n", ui.Muted.Render(ts), ui.Agent(e.Decision).Render(fmt.Sprintf("%-9s", e.Decision)), truncate(e.Input, 60))
		fmt.Fprintf(out, "  %s\n", ui.Muted.Render(e.Rationale))
		if e.Trace.HasError() {
			fmt.Fprintf(out, "  %s %s\n", ui.Warning.Render("error:"), truncate(e.Trace.Error, 80))
		}
	}
	return nil
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("%s: export file must end in .xlsx", path)
	}

	entries, err := recentLogs(cmd)
	if err != nil {
		return err
	}
	if err := exportLogs(path, entries); err != nil {
		return fmt.Errorf("failed to export decision log: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d decisions to %s\n", len(entries), path)
	return nil
}

// exportLogs writes entries to an xlsx workbook with one row per decision.
func exportLogs(path string, entries []domain.LogEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", logsSheet); err != nil {
		return err
	}

	header := []any{"Time", "Decision", "Rationale", "Input", "Query", "Error"}
	if err := f.SetSheetRow(logsSheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(logsSheet, "A1", "F1", bold); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339),
			string(e.Decision),
			e.Rationale,
			e.Input,
			e.Trace.Query,
			e.Trace.Error,
		}
		if err := f.SetSheetRow(logsSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(logsSheet, "C", "D", 60); err != nil {
		return err
	}
	return f.SaveAs(path)
}
