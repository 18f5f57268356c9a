package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"agentic-rag-go/internal/config"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Build the index, answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config.Conf, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	a.buildIndex(ctx)

	answer, err := a.queries.Submit(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n", answer.Route, answer.Text)
	return nil
}
