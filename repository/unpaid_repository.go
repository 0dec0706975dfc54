package repository

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

func (s *Store) CreateUnpaidEntry(ctx context.Context, entry *models.UnpaidEntry) error {
	return s.conn(ctx).Create(entry).Error
}

func (s *Store) GetUnpaidEntry(ctx context.Context, id uint) (*models.UnpaidEntry, error) {
	var entry models.UnpaidEntry
	if err := s.conn(ctx).Preload("Order").First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// UnpaidEntryByOrder returns the ledger entry of an order, or nil.
func (s *Store) UnpaidEntryByOrder(ctx context.Context, orderID uint) (*models.UnpaidEntry, error) {
	var entries []models.UnpaidEntry
	if err := s.conn(ctx).Where("order_id = ?", orderID).Limit(1).Find(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *Store) ListUnpaidEntries(ctx context.Context) ([]models.UnpaidEntry, error) {
	var entries []models.UnpaidEntry
	err := s.conn(ctx).
		Preload("Order").
		Order("customer_name ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (s *Store) DeleteUnpaidEntry(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.UnpaidEntry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUnpaidEntriesForOrder reports how many entries were removed.
func (s *Store) DeleteUnpaidEntriesForOrder(ctx context.Context, orderID uint) (int64, error) {
	res := s.conn(ctx).Where("order_id = ?", orderID).Delete(&models.UnpaidEntry{})
	return res.RowsAffected, res.Error
}
