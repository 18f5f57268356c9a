package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
)

// EmbeddingCacheRepository stores embedding vectors in Redis as little-endian float32 blobs.
type EmbeddingCacheRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewEmbeddingCacheRepository creates a cache whose entries expire after ttl (0 keeps them).
func NewEmbeddingCacheRepository(redisClient *redis.Client, ttl time.Duration) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{redisClient: redisClient, ttl: ttl}
}

// Get returns (nil, false, nil) on a miss.
func (r *EmbeddingCacheRepository) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := r.redisClient.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached embedding: %w", err)
	}
	vec, err := decodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (r *EmbeddingCacheRepository) Set(ctx context.Context, key string, vector []float32) error {
	if err := r.redisClient.Set(ctx, key, encodeVector(vector), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	return nil
}

var errCorruptVector = errors.New("cached embedding has invalid length")

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errCorruptVector
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
