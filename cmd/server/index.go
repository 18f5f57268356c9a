package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"agentic-rag-go/internal/config"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the document index once and print build statistics",
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config.Conf, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if _, err := a.index.Rebuild(ctx); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(a.index.Status())
}
