// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Conf holds the configuration loaded by Init.
var Conf Config

// Config mirrors configs/config.yaml.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Documents     DocumentsConfig     `mapstructure:"documents"`
	Index         IndexConfig         `mapstructure:"index"`
	Router        RouterConfig        `mapstructure:"router"`
	Calls         CallsConfig         `mapstructure:"calls"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Search        SearchConfig        `mapstructure:"search"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DocumentsConfig describes the document source and how it is chunked.
type DocumentsConfig struct {
	Dir           string        `mapstructure:"dir"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	ChunkOverlap  int           `mapstructure:"chunk_overlap"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend      string `mapstructure:"backend"` // memory | elasticsearch
	TopK         int    `mapstructure:"top_k"`
	EmbedWorkers int    `mapstructure:"embed_workers"`
}

// RouterConfig controls route resolution.
type RouterConfig struct {
	// Precedence lists the classifier keywords in the order they are checked.
	Precedence []string `mapstructure:"precedence"`
}

// CallsConfig bounds every external call.
type CallsConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	APIKey     string               `mapstructure:"api_key"`
	BaseURL    string               `mapstructure:"base_url"`
	Model      string               `mapstructure:"model"`
	Dimensions int                  `mapstructure:"dimensions"`
	Cache      EmbeddingCacheConfig `mapstructure:"cache"`
}

// EmbeddingCacheConfig configures the Redis-backed embedding cache.
type EmbeddingCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LLMConfig configures the generation model.
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
	Prompt     LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig holds optional sampling parameters.
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig overrides the built-in prompt templates. Empty keeps the default.
type LLMPromptConfig struct {
	Router    string `mapstructure:"router"`
	Retrieval string `mapstructure:"retrieval"`
	Direct    string `mapstructure:"direct"`
	Summarize string `mapstructure:"summarize"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	Provider          string  `mapstructure:"provider"`
	BaseURL           string  `mapstructure:"base_url"`
	HTMLURL           string  `mapstructure:"html_url"` // result-page fallback; empty disables it
	MaxSnippets       int     `mapstructure:"max_snippets"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// TikaConfig holds the Tika server address used for PDF extraction.
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig is used when index.backend is elasticsearch.
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// DatabaseConfig holds the optional MySQL audit log and Redis cache connections.
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig enables the query audit log when DSN is set.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds the Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig enables queued index rebuilds when Brokers is set.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig mirrors a bucket prefix into the document dir before each build.
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Prefix          string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("documents.dir", "my_docs")
	v.SetDefault("documents.chunk_size", 500)
	v.SetDefault("documents.chunk_overlap", 50)
	v.SetDefault("documents.watch", false)
	v.SetDefault("documents.watch_debounce", "2s")
	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.top_k", 4)
	v.SetDefault("index.embed_workers", 4)
	v.SetDefault("router.precedence", []string{"web", "rag"})
	v.SetDefault("calls.timeout", "30s")
	v.SetDefault("calls.max_retries", 1)
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.cache.ttl", "168h")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.generation.temperature", 0.2)
	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.base_url", "https://api.duckduckgo.com")
	v.SetDefault("search.html_url", "https://html.duckduckgo.com/html")
	v.SetDefault("search.max_snippets", 5)
	v.SetDefault("search.requests_per_second", 1.0)
	v.SetDefault("search.burst", 2)
	v.SetDefault("elasticsearch.index_name", "agentic_rag_chunks")
	v.SetDefault("kafka.topic", "index-rebuild")
	v.SetDefault("kafka.group_id", "agentic-rag-go-rebuild")
	v.SetDefault("minio.prefix", "")
}

// Load reads the YAML file at path (missing file means defaults only), applies RAG_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("RAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init loads configPath into Conf and panics on failure.
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	Conf = *cfg
}

// Validate rejects settings that would break chunking, routing or the index backend.
func (c *Config) Validate() error {
	if c.Documents.ChunkSize <= 0 {
		return fmt.Errorf("documents.chunk_size must be positive, got %d", c.Documents.ChunkSize)
	}
	if c.Documents.ChunkOverlap < 0 || c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("documents.chunk_overlap must be in [0, chunk_size), got %d", c.Documents.ChunkOverlap)
	}
	switch c.Index.Backend {
	case "memory", "elasticsearch":
	default:
		return fmt.Errorf("unknown index.backend %q", c.Index.Backend)
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index.top_k must be positive, got %d", c.Index.TopK)
	}
	for _, p := range c.Router.Precedence {
		switch strings.ToLower(p) {
		case "web", "rag":
		default:
			return fmt.Errorf("unknown router.precedence keyword %q", p)
		}
	}
	switch strings.ToLower(c.Search.Provider) {
	case "", "duckduckgo":
	default:
		return fmt.Errorf("unknown search.provider %q", c.Search.Provider)
	}
	if c.Calls.Timeout <= 0 {
		return fmt.Errorf("calls.timeout must be positive, got %s", c.Calls.Timeout)
	}
	if c.Calls.MaxRetries < 0 || c.Calls.MaxRetries > 1 {
		return fmt.Errorf("calls.max_retries must be 0 or 1, got %d", c.Calls.MaxRetries)
	}
	if c.Embedding.Cache.Enabled && c.Database.Redis.Addr == "" {
		return errors.New("embedding.cache.enabled requires database.redis.addr")
	}
	if c.MinIO.Enabled && c.MinIO.BucketName == "" {
		return errors.New("minio.enabled requires minio.bucket_name")
	}
	return nil
}
