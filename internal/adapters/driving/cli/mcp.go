package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triage/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve triage to MCP clients",
	Long: `Expose ask, PDF ingestion, the document list and the decision log as
MCP tools and resources.

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves the streamable HTTP transport.

Examples:
  triage mcp serve
  triage mcp serve --port 8080 --host 0.0.0.0

Client configuration:
  {
    "mcpServers": {
      "triage": {"command": "/path/to/triage", "args": ["mcp", "serve"]}
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 serves stdio)")
	mcpServeCmd.Flags().String("host", "localhost", "HTTP bind host")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Ask:       askService,
		Ingestion: ingestionService,
		Documents: documentService,
		Logs:      decisionLogService,
	}, version)
	if err != nil {
		return err
	}

	if port == 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
