package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/aslgraph/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the compiler to AI agents as MCP tools: compile_document,
validate_document and render_graph. With --store-dir the machines stored by
"aslgraph serve" can be listed and read as well.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}

		opts := []mcp.Option{mcp.WithLogger(logger)}
		if storeDir, _ := cmd.Flags().GetString("store-dir"); storeDir != "" {
			store, _, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			opts = append(opts, mcp.WithStore(store))
		}
		srv := mcp.NewServer(newCompiler(cmd), opts...)

		if transport == "stdio" {
			// Logs go to stderr; stdout carries JSON-RPC.
			logger.Info("starting MCP server", "transport", transport)
			return srv.ServeStdio()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if baseURL == "" {
			baseURL = "http://localhost" + addr
		}
		if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		logger.Info("MCP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", envOr("ASLGRAPH_MCP_TRANSPORT", "stdio"), "Transport protocol to use: 'stdio' or 'sse' (env ASLGRAPH_MCP_TRANSPORT)")
	mcpCmd.Flags().String("addr", envOr("ASLGRAPH_MCP_ADDR", ":8081"), "Address to listen on, only for SSE (env ASLGRAPH_MCP_ADDR)")
	mcpCmd.Flags().String("base-url", "", "Public URL of the SSE server; derived from --addr when empty")
	mcpCmd.Flags().String("store-dir", envOr("ASLGRAPH_STORE_DIR", ""), "Directory of stored machines to expose (env ASLGRAPH_STORE_DIR)")
	mcpCmd.Flags().String("entry", "", "Name of the entry state, overriding the document's entry")
}
