package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the single persistence entry point of the services. It is created
// once per process; inside Transaction the callback receives a Store bound to
// the open transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(models.All()...)
}

// Transaction runs fn inside a database transaction. Returning an error from
// fn rolls back everything fn wrote.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// locking adds SELECT ... FOR UPDATE where the dialect has row locks.
// SQLite serializes writers, so it gets a plain select.
func (s *Store) locking(ctx context.Context) *gorm.DB {
	q := s.conn(ctx)
	if s.db.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

// RecordChange writes an outbox row for the change monitor.
func (s *Store) RecordChange(ctx context.Context, tableName string, recordID uint, action string) error {
	return s.conn(ctx).Create(&models.DBChange{
		TableName:  tableName,
		RecordID:   int64(recordID),
		ActionType: action,
		ChangedAt:  time.Now(),
	}).Error
}

// PendingChanges returns up to limit unprocessed outbox rows, oldest first.
func (s *Store) PendingChanges(ctx context.Context, limit int) ([]models.DBChange, error) {
	var changes []models.DBChange
	err := s.conn(ctx).
		Where("processed = ?", false).
		Order("changed_at ASC, id ASC").
		Limit(limit).
		Find(&changes).Error
	return changes, err
}

func (s *Store) MarkChangesProcessed(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&models.DBChange{}).
		Where("id IN ?", ids).
		Update("processed", true).Error
}

// updateByID applies fields to the row with the given id. MySQL reports zero
// affected rows for no-op updates, so existence is checked separately.
func (s *Store) updateByID(ctx context.Context, model interface{}, id uint, fields map[string]interface{}) error {
	if err := s.conn(ctx).Select("id").First(model, id).Error; err != nil {
		return err
	}
	return s.conn(ctx).Model(model).Updates(fields).Error
}
