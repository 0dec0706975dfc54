package repository

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
)

func (s *Store) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.conn(ctx).First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// GetTableForUpdate loads the table and holds its row lock until the
// surrounding transaction ends.
func (s *Store) GetTableForUpdate(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.locking(ctx).First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *Store) ListTables(ctx context.Context, status models.TableStatus) ([]models.Table, error) {
	q := s.conn(ctx).Order("table_number ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tables []models.Table
	err := q.Find(&tables).Error
	return tables, err
}

func (s *Store) CreateTable(ctx context.Context, table *models.Table) error {
	return s.conn(ctx).Create(table).Error
}

func (s *Store) UpdateTable(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateByID(ctx, &models.Table{}, id, fields)
}

// SetTableOccupancy sets status and the weak current-order pointer together.
func (s *Store) SetTableOccupancy(ctx context.Context, id uint, status models.TableStatus, currentOrderID *uint) error {
	return s.conn(ctx).Model(&models.Table{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"current_order_id": currentOrderID,
		}).Error
}

// ClearCurrentOrder drops every table pointer at orderID.
func (s *Store) ClearCurrentOrder(ctx context.Context, orderID uint) error {
	return s.conn(ctx).Model(&models.Table{}).
		Where("current_order_id = ?", orderID).
		Update("current_order_id", nil).Error
}

func (s *Store) CountTablesByStatus(ctx context.Context) (map[models.TableStatus]int64, error) {
	var rows []struct {
		Status models.TableStatus
		Count  int64
	}
	err := s.conn(ctx).Model(&models.Table{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.TableStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
