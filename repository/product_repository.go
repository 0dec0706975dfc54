package repository

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.conn(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts loads the given products keyed by id. Missing ids are simply
// absent from the map.
func (s *Store) GetProducts(ctx context.Context, ids []uint) (map[uint]*models.Product, error) {
	var products []models.Product
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool, categoryID *uint) ([]models.Product, error) {
	q := s.conn(ctx).Preload("Category").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var products []models.Product
	err := q.Find(&products).Error
	return products, err
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.conn(ctx).Create(product).Error
}

func (s *Store) UpdateProduct(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateByID(ctx, &models.Product{}, id, fields)
}

// AdjustStock applies delta relative to the stored value in one statement.
func (s *Store) AdjustStock(ctx context.Context, id uint, delta int) error {
	if delta == 0 {
		return nil
	}
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStockIfAvailable takes qty only when at least qty is in stock and
// reports whether it did.
func (s *Store) DecrementStockIfAvailable(ctx context.Context, id uint, qty int) (bool, error) {
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.conn(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.conn(ctx).Create(category).Error
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
