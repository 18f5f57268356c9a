package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"agentic-rag-go/pkg/log"
)

// Cache stores vectors by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32) error
}

type cachedClient struct {
	inner Client
	cache Cache
	model string
}

// NewCachedClient wraps inner so repeated texts for the same model skip the API.
// Cache failures are logged and fall through to inner.
func NewCachedClient(inner Client, cache Cache, model string) Client {
	return &cachedClient{inner: inner, cache: cache, model: model}
}

// CacheKey is the cache key for text under model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}

func (c *cachedClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.model, text)
	if vec, ok, err := c.cache.Get(ctx, key); err != nil {
		log.Warnf("[EmbeddingCache] cache read failed, key: %s, error: %v", key, err)
	} else if ok {
		return vec, nil
	}

	vec, err := c.inner.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, vec); err != nil {
		log.Warnf("[EmbeddingCache] cache write failed, key: %s, error: %v", key, err)
	}
	return vec, nil
}
