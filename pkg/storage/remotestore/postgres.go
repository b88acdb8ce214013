package remotestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendasmart/pkg/database/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTable is the kv table in the postgres database.
type GormTable struct {
	db *gorm.DB
}

// NewGormTable creates the table over an open connection.
func NewGormTable(db *gorm.DB) *GormTable {
	return &GormTable{db: db}
}

func keyEquals(key string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

// Upsert the key value.
func (t *GormTable) Upsert(ctx context.Context, key string, value string) error {
	record := &models.KVRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	return nil
}

// Select returns the raw value column of key.
func (t *GormTable) Select(ctx context.Context, key string) (string, bool, error) {
	var record models.KVRecord

	err := t.db.WithContext(ctx).Where(keyEquals(key)).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}

	return record.Value, true, nil
}

// Delete the key row.
func (t *GormTable) Delete(ctx context.Context, key string) error {
	if err := t.db.WithContext(ctx).Where(keyEquals(key)).Delete(&models.KVRecord{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys starting with prefix.
func (t *GormTable) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}

	err := t.db.WithContext(ctx).
		Model(&models.KVRecord{}).
		Where(clause.Like{Column: clause.Column{Name: "key"}, Value: escapeLike(prefix) + "%"}).
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	return keys, nil
}
