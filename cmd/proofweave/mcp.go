package main

import (
	"fmt"

	"github.com/aretw0/proofweave/internal/cli"
	"github.com/aretw0/proofweave/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the proofweave engine as an MCP Server.
This allows AI agents to build proofs through tools: read the graph, apply
tactics, remove edges and run the evaluator.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rt, err := cli.CreateEngine(e.cfg, e.logger)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, rt)

		srv := mcp.NewServer(rt.Engine, mcp.WithLogger(e.logger))

		switch transport {
		case "stdio":
			e.logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()
			if err := srv.ServeSSE(sc, port); err != nil {
				return err
			}
			e.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
