package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// record is one stored document.
type record struct {
	ID        string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"index"`
}

func (record) TableName() string { return "records" }

// SQLiteAdapter persists documents in a SQLite database.
type SQLiteAdapter struct {
	db *gorm.DB
}

// NewSQLiteAdapter opens (creating if needed) the SQLite database at path
// and migrates its schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("store: migrate %s: %w", path, err)
	}
	return &SQLiteAdapter{db: db}, nil
}

// Get retrieves a value by key.
func (s *SQLiteAdapter) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var rec record
	err := s.db.WithContext(ctx).Where("id = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %q: %w", key, err)
	}
	return json.RawMessage(rec.Value), true, nil
}

// Set upserts a value by key.
func (s *SQLiteAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	rec := record{ID: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *SQLiteAdapter) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", key).Delete(&record{}).Error; err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all keys with the given prefix, sorted.
func (s *SQLiteAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	q := s.db.WithContext(ctx).Model(&record{})
	if prefix != "" {
		q = q.Where("id >= ?", prefix)
		if end, ok := prefixEnd(prefix); ok {
			q = q.Where("id < ?", end)
		}
	}

	var keys []string
	if err := q.Order("id").Pluck("id", &keys).Error; err != nil {
		return nil, fmt.Errorf("store: keys: %w", err)
	}
	return keys, nil
}

// prefixEnd returns the smallest string greater than every string with the
// given prefix, comparing bytes. It reports false when no such bound exists.
func prefixEnd(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}

// Close closes the underlying database.
func (s *SQLiteAdapter) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
