package service

import (
	"context"
	"errors"

	"agentic-rag-go/internal/model"
)

// ErrHistoryDisabled is returned when no audit log database is configured.
var ErrHistoryDisabled = errors.New("query history is disabled")

// QueryLister reads back recorded queries, newest first.
type QueryLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.QueryRecord, error)
}

// HistoryService exposes the query audit log.
type HistoryService struct {
	repo QueryLister
}

// NewHistoryService accepts a nil repo, in which case every call returns ErrHistoryDisabled.
func NewHistoryService(repo QueryLister) *HistoryService {
	return &HistoryService{repo: repo}
}

const maxHistoryLimit = 100

// Recent returns up to limit records; limit is clamped to [1, 100] with 20 as the default.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]model.QueryRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
