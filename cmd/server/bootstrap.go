package main

import (
	"context"
	"fmt"

	"agentic-rag-go/internal/config"
	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/pipeline"
	"agentic-rag-go/internal/repository"
	"agentic-rag-go/internal/service"
	"agentic-rag-go/pkg/database"
	"agentic-rag-go/pkg/embedding"
	"agentic-rag-go/pkg/es"
	"agentic-rag-go/pkg/kafka"
	"agentic-rag-go/pkg/llm"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/retry"
	"agentic-rag-go/pkg/storage"
	"agentic-rag-go/pkg/tika"
	"agentic-rag-go/pkg/websearch"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      config.Config
	index    *service.IndexService
	queries  *service.QueryService
	history  *service.HistoryService
	producer *kafka.Producer
}

// newApp connects the optional backends named in cfg and wires the query pipeline.
// withQueue enables the Kafka rebuild producer; one-shot commands build inline instead.
func newApp(ctx context.Context, cfg config.Config, withQueue bool) (*app, error) {
	policy := retry.Policy{
		Timeout:    cfg.Calls.Timeout,
		MaxRetries: cfg.Calls.MaxRetries,
		Backoff:    retry.DefaultPolicy.Backoff,
	}

	if cfg.Database.Redis.Addr != "" {
		if err := database.InitRedis(cfg.Database.Redis); err != nil {
			return nil, err
		}
	}

	var (
		recorder service.QueryRecorder
		lister   service.QueryLister
	)
	if cfg.Database.MySQL.DSN != "" {
		if err := database.InitMySQL(cfg.Database.MySQL.DSN); err != nil {
			return nil, err
		}
		repo := repository.NewQueryRecordRepository(database.DB)
		recorder, lister = repo, repo
	}

	embedder := embedding.NewClient(cfg.Embedding)
	if cfg.Embedding.Cache.Enabled {
		cache := repository.NewEmbeddingCacheRepository(database.RDB, cfg.Embedding.Cache.TTL)
		embedder = embedding.NewCachedClient(embedder, cache, cfg.Embedding.Model)
		log.Infof("embedding cache enabled, ttl %s", cfg.Embedding.Cache.TTL)
	}
	llmClient := llm.NewClient(cfg.LLM)

	factory := index.Factory(index.NewMemory)
	if cfg.Index.Backend == "elasticsearch" {
		esClient, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		factory = index.NewElasticsearchFactory(esClient, cfg.Elasticsearch.IndexName, cfg.Embedding.Model)
	}

	splitter, err := pipeline.NewSplitter(cfg.Documents.ChunkSize, cfg.Documents.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	builder := pipeline.NewBuilder(splitter, embedder, factory, policy, cfg.Index.EmbedWorkers)

	var extractor pipeline.TextExtractor
	if tc := tika.NewClient(cfg.Tika); tc != nil {
		extractor = tc
	} else {
		log.Warnf("tika.server_url is not set, pdf files will be skipped")
	}

	var mirror service.DocumentMirror
	if cfg.MinIO.Enabled {
		mc, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		mirror = storage.NewMirror(mc, cfg.MinIO.BucketName, cfg.MinIO.Prefix, pipeline.IsSupported)
	}

	search, err := websearch.New(cfg.Search)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	var publisher service.RebuildPublisher
	if withQueue && cfg.Kafka.Brokers != "" {
		a.producer = kafka.NewProducer(cfg.Kafka)
		publisher = a.producer
	}

	holder := index.NewHolder(nil)
	a.index = service.NewIndexService(cfg.Documents.Dir, pipeline.NewIngestor(extractor), builder, holder, mirror, publisher)

	prompts := service.NewPrompts(cfg.LLM.Prompt)
	a.queries = service.NewQueryService(
		service.NewRouter(llmClient, prompts, cfg.Router.Precedence, policy),
		service.NewWebResponder(search, policy),
		service.NewRetrievalResponder(embedder, llmClient, prompts, cfg.Index.TopK, policy),
		service.NewDirectResponder(llmClient, prompts, policy),
		service.NewSynthesizer(llmClient, prompts, policy),
		holder,
		recorder,
	)
	a.history = service.NewHistoryService(lister)
	return a, nil
}

// buildIndex runs the initial build. A failed build leaves the service answering without an index.
func (a *app) buildIndex(ctx context.Context) {
	stats, err := a.index.Rebuild(ctx)
	if err != nil {
		log.Errorf("initial index build failed, serving without an index: %v", err)
		return
	}
	log.Infof("index built: %d documents, %d chunks indexed", stats.Documents, stats.Indexed)
}

func (a *app) close(ctx context.Context) {
	if err := a.index.Close(ctx); err != nil {
		log.Warnf("failed to release index: %v", err)
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			log.Warnf("failed to close kafka producer: %v", err)
		}
	}
	if database.RDB != nil {
		_ = database.RDB.Close()
	}
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
