package cli

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	pfmcp "github.com/phonefield/phonefield/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP (Model Context Protocol) server",
	Long: `Start a Model Context Protocol server that exposes the phonefield API
as tools, resources and prompts for AI assistants.

The MCP server talks to a running 'phonefield serve' instance.

Stdio mode:
  phonefield mcp

With explicit server URL:
  phonefield mcp --url http://127.0.0.1:8095

Client configuration:
  {
    "mcpServers": {
      "phonefield": {
        "command": "phonefield",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("url", "", "phonefield server URL (default: from server.host and server.port)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	baseURL, _ := cmd.Flags().GetString("url")
	if baseURL == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		baseURL = serverURL(cfg.Server.Host, cfg.Server.Port)
	}

	srv := pfmcp.NewServer(pfmcp.Config{
		BaseURL: baseURL,
		Version: buildVersion,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// serverURL returns the base URL a local client uses to reach the server.
// Wildcard listen addresses are reached through loopback.
func serverURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}
