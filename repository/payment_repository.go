package repository

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
)

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.conn(ctx).Create(payment).Error
}

func (s *Store) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.conn(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *Store) ListPayments(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	q := s.conn(ctx).Order("created_at DESC")
	if orderID != 0 {
		q = q.Where("order_id = ?", orderID)
	}
	err := q.Find(&payments).Error
	return payments, err
}
