package models

import "time"

// Database model of the remote key/value table.
// The value column is plain text: rows written by older clients may hold JSON, JSON strings or broken text.
type KVRecord struct {
	Key       string `gorm:"column:key;primaryKey;autoIncrement:false"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name short, other clients query it directly.
func (KVRecord) TableName() string {
	return "kv"
}
