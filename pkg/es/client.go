// Package es wraps the Elasticsearch calls used by the elasticsearch index backend.
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"agentic-rag-go/internal/config"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// NewClient creates an Elasticsearch client from cfg.
// Addresses may hold several comma-separated nodes.
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	var addresses []string
	for _, a := range strings.Split(esCfg.Addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	cfg := elasticsearch.Config{
		Addresses: addresses,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return elasticsearch.NewClient(cfg)
}

// CreateIndex creates indexName with a cosine dense_vector mapping of dims dimensions.
func CreateIndex(ctx context.Context, client *elasticsearch.Client, indexName string, dims int) error {
	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"chunk_id": { "type": "keyword" },
				"document_id": { "type": "keyword" },
				"position": { "type": "integer" },
				"text_content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" }
			}
		}
	}`, dims)

	res, err := esapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", indexName, res.String())
	}
	log.Infof("[ES] index '%s' created, dims: %d", indexName, dims)
	return nil
}

// DeleteIndex drops indexName. A missing index is not an error.
func DeleteIndex(ctx context.Context, client *elasticsearch.Client, indexName string) error {
	res, err := esapi.IndicesDeleteRequest{Index: []string{indexName}}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete index %s: %s", indexName, res.String())
	}
	return nil
}

// BulkIndex writes docs into indexName in one request and refreshes it, so the index is
// searchable as soon as the call returns.
func BulkIndex(ctx context.Context, client *elasticsearch.Client, indexName string, docs []model.EsChunk) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]any{"index": map[string]any{"_id": doc.ChunkID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	res, err := esapi.BulkRequest{
		Index:   indexName,
		Body:    &buf,
		Refresh: "true",
	}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulkResp.Errors {
		return errors.New("bulk index reported item errors")
	}
	return nil
}

// Hit is one kNN search result.
type Hit struct {
	Source model.EsChunk
	Score  float64
}

// KNNSearch runs an approximate kNN query against the vector field of indexName.
func KNNSearch(ctx context.Context, client *elasticsearch.Client, indexName string, vector []float32, k int) ([]Hit, error) {
	query := map[string]any{
		"knn": map[string]any{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 10,
		},
		"size":    k,
		"_source": map[string]any{"excludes": []string{"vector"}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode knn query: %w", err)
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(indexName),
		client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("knn search returned %s: %s", res.Status(), string(body))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunk `json:"_source"`
				Score  float64       `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("decode knn response: %w", err)
	}

	hits := make([]Hit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, Hit{Source: h.Source, Score: h.Score})
	}
	return hits, nil
}
