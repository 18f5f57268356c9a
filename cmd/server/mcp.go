package main

import (
	"context"
	"os/signal"
	"syscall"

	"agentic-rag-go/internal/config"
	"agentic-rag-go/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ask tool to MCP clients over stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config.Conf, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	a.buildIndex(ctx)

	server, err := mcp.NewServer(a.queries, a.index)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
