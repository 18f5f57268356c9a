package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agentic-rag-go/internal/config"
	"agentic-rag-go/internal/handler"
	"agentic-rag-go/internal/pipeline"
	"agentic-rag-go/internal/service"
	"agentic-rag-go/pkg/kafka"
	"agentic-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the document index and serve the HTTP and WebSocket API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Conf
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	// queries are only accepted once the first build is done
	a.buildIndex(ctx)

	if cfg.Kafka.Brokers != "" {
		go kafka.StartConsumer(ctx, cfg.Kafka, a.index)
	}
	if cfg.Documents.Watch {
		w := pipeline.NewWatcher(cfg.Documents.Dir, cfg.Documents.WatchDebounce, func(ctx context.Context) {
			if _, err := a.index.TriggerRebuild(ctx, "watch"); err != nil {
				log.Errorf("failed to trigger rebuild after document change: %v", err)
			}
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Errorf("document watcher stopped: %v", err)
			}
		}()
	}

	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.Handlers{
		Query:   handler.NewQueryHandler(a.queries),
		Index:   handler.NewIndexHandler(a.index),
		History: handler.NewHistoryHandler(a.history),
		Chat:    handler.NewChatHandler(service.NewChatService(a.queries)),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
