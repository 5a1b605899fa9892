package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/atlas"
	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [document.json]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the assembled document to AI agents as MCP tools: validation,
node lookup, reports, graph export, story walks and the narrative edit lock.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = settings.Addr
		}

		locker, closeLocker := newLocker()
		defer closeLocker()

		srv := mcp.NewServer(fileAdapter.Source{Path: documentPath(args)}, atlas.Version,
			mcp.WithLocker(locker),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			// Logs go to stderr so they never corrupt JSON-RPC on stdout.
			logger.Info("Starting Atlas MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, addr, "http://localhost"+addr); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8080", "Address to listen on (only for SSE)")
}
