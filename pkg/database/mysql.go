// Package database opens the MySQL and Redis connections used by the optional audit log
// and embedding cache.
package database

import (
	"fmt"
	"time"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitMySQL connects to dsn and migrates the query_records table.
func InitMySQL(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.QueryRecord{}); err != nil {
		return fmt.Errorf("failed to migrate query_records: %w", err)
	}

	DB = db
	log.Info("MySQL database connected successfully")
	return nil
}
