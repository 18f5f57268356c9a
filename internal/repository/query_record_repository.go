// Package repository holds the persistence adapters behind the services.
package repository

import (
	"context"

	"agentic-rag-go/internal/model"

	"gorm.io/gorm"
)

// QueryRecordRepository persists the query audit log.
type QueryRecordRepository interface {
	Create(ctx context.Context, record *model.QueryRecord) error
	ListRecent(ctx context.Context, limit int) ([]model.QueryRecord, error)
}

type queryRecordRepository struct {
	db *gorm.DB
}

// NewQueryRecordRepository creates a GORM-backed QueryRecordRepository.
func NewQueryRecordRepository(db *gorm.DB) QueryRecordRepository {
	return &queryRecordRepository{db: db}
}

func (r *queryRecordRepository) Create(ctx context.Context, record *model.QueryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListRecent returns the newest records first.
func (r *queryRecordRepository) ListRecent(ctx context.Context, limit int) ([]model.QueryRecord, error) {
	var records []model.QueryRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}
