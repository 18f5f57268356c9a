package model

import "time"

// QueryRecord is one row of the query audit log.
type QueryRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestID    string    `gorm:"type:varchar(96);index;not null" json:"requestId"`
	Query        string    `gorm:"type:text;not null" json:"query"`
	Route        string    `gorm:"type:varchar(16);index;not null" json:"route"`
	Answer       string    `gorm:"type:text;not null" json:"answer"`
	BranchFailed bool      `gorm:"not null;default:false" json:"branchFailed"`
	LatencyMS    int64     `gorm:"not null" json:"latencyMs"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (QueryRecord) TableName() string {
	return "query_records"
}
