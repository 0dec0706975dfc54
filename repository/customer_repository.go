package repository

import (
	"context"
	"errors"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

func (s *Store) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.conn(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.conn(ctx).Order("name ASC").Find(&customers).Error
	return customers, err
}

func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return s.conn(ctx).Create(customer).Error
}

func (s *Store) UpdateCustomer(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateByID(ctx, &models.Customer{}, id, fields)
}

// MembershipDiscountPercent returns the customer's tier discount, 0 when the
// customer is unknown.
func (s *Store) MembershipDiscountPercent(ctx context.Context, customerID uint) (float64, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return customer.DiscountPercent(), nil
}
