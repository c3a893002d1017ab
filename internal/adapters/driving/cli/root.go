// Package cli implements the triage command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by main.
var (
	askService         driving.AskService
	ingestionService   driving.IngestionService
	documentService    driving.DocumentService
	decisionLogService driving.DecisionLogService
	settingsService    driving.SettingsService
	serveConfig        ServeConfig
)

var verbose bool

// Services groups the driving ports the commands call into.
type Services struct {
	Ask       driving.AskService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Logs      driving.DecisionLogService
	Settings  driving.SettingsService
}

// ServeConfig holds defaults for the serve command.
type ServeConfig struct {
	Addr        string
	UploadDir   string
	MaxUploadMB int

	// Agents lists configured answerers, reported by /health.
	Agents []string
}

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Route questions to documents, the web or arXiv",
	Long: `triage answers questions by routing each one to the best agent:

  RETRIEVAL  answers from PDFs you have ingested
  WEB        answers from a live web search
  PAPER      answers from recent arXiv papers

Every routing decision is appended to a JSONL decision log.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices installs the services used by commands.
func SetServices(s Services) {
	askService = s.Ask
	ingestionService = s.Ingestion
	documentService = s.Documents
	decisionLogService = s.Logs
	settingsService = s.Settings
}

// SetServeConfig sets the defaults for the serve command.
func SetServeConfig(cfg ServeConfig) {
	serveConfig = cfg
}

// SetVersion sets the version reported by the version command and /health.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
