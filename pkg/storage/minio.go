// Package storage mirrors documents from MinIO into the local document directory.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"agentic-rag-go/internal/config"
	"agentic-rag-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinIO creates a MinIO client and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check minio bucket: %w", err)
	}
	if !exists {
		log.Infof("bucket '%s' does not exist, creating it", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create minio bucket: %w", err)
		}
	}
	log.Info("MinIO client initialized")
	return client, nil
}

// Mirror downloads the objects directly under a bucket prefix.
type Mirror struct {
	client *minio.Client
	bucket string
	prefix string
	accept func(name string) bool
}

// NewMirror returns a mirror of bucket/prefix that only copies objects accept approves.
func NewMirror(client *minio.Client, bucket, prefix string, accept func(name string) bool) *Mirror {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Mirror{client: client, bucket: bucket, prefix: prefix, accept: accept}
}

// Mirror copies every accepted object into dir, overwriting local files of the same name,
// and returns how many it copied. Nested prefixes are not descended into.
func (m *Mirror) Mirror(ctx context.Context, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	copied := 0
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: m.prefix}) {
		if obj.Err != nil {
			return copied, fmt.Errorf("list %s/%s: %w", m.bucket, m.prefix, obj.Err)
		}
		name := path.Base(obj.Key)
		if strings.HasSuffix(obj.Key, "/") || strings.HasPrefix(name, ".") || !m.accept(name) {
			continue
		}
		if err := m.client.FGetObject(ctx, m.bucket, obj.Key, filepath.Join(dir, name), minio.GetObjectOptions{}); err != nil {
			return copied, fmt.Errorf("download %s: %w", obj.Key, err)
		}
		copied++
	}
	return copied, nil
}
