package cli

import (
	"fmt"

	"atscore/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can call the
scoring engine as tools: score_resume, match_skills, canonicalize_skills and
search_benchmarks.

By default the server communicates over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode
  atscore mcp

  # HTTP mode
  atscore mcp --port 8090`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	logger := getLoggerFromContext(cmd.Context())

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	server, err := mcp.NewServer(a, Version, logger)
	if err != nil {
		return err
	}

	if port > 0 {
		return server.RunHTTP(cmd.Context(), fmt.Sprintf(":%d", port))
	}
	return server.Run(cmd.Context())
}
