package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
)

type ProductInput struct {
	CategoryID  *uint    `json:"category_id"`
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	IsActive    *bool    `json:"is_active"`
	Description *string  `json:"description"`
}

type CustomerInput struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	MembershipTier *string `json:"membership_tier"`
	LoyaltyPoints  *int    `json:"loyalty_points"`
}

// CatalogService covers products, categories and customers.
type CatalogService struct {
	store *repository.Store
}

func NewCatalogService(store *repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool, categoryID *uint) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx, activeOnly, categoryID)
	if err != nil {
		return nil, dbError("list products", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, dbError(fmt.Sprintf("product %d", id), err)
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, validation("name is required")
	}
	if in.Price == nil || *in.Price < 0 {
		return nil, validation("price must be zero or more")
	}
	product := &models.Product{
		CategoryID: in.CategoryID,
		Name:       strings.TrimSpace(*in.Name),
		Price:      toFloat(money(*in.Price)),
		IsActive:   true,
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, dbError("create product", err)
	}
	return product, nil
}

// UpdateProduct changes catalog fields. Stock is set absolutely here; order
// flows only ever adjust it relatively.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validation("name must not be empty")
		}
		fields["name"] = name
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, validation("price must be zero or more")
		}
		fields["price"] = toFloat(money(*in.Price))
	}
	if in.Stock != nil {
		fields["stock"] = *in.Stock
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}
	if len(fields) == 0 {
		return nil, validation("nothing to update")
	}
	if err := s.store.UpdateProduct(ctx, id, fields); err != nil {
		return nil, dbError(fmt.Sprintf("product %d", id), err)
	}
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return dbError("list categories", err)
	}
	for _, c := range categories {
		if c.ID == *id {
			return nil
		}
	}
	return notFound("category %d not found", *id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, dbError("list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("name is required")
	}
	category := &models.Category{Name: name}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, dbError(fmt.Sprintf("category %q", name), err)
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return dbError(fmt.Sprintf("category %d", id), s.store.DeleteCategory(ctx, id))
}

func (s *CatalogService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, dbError("list customers", err)
	}
	return customers, nil
}

func (s *CatalogService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, dbError(fmt.Sprintf("customer %d", id), err)
	}
	return customer, nil
}

func (s *CatalogService) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, validation("name is required")
	}
	customer := &models.Customer{
		Name:           strings.TrimSpace(*in.Name),
		MembershipTier: models.TierRegular,
	}
	if in.Phone != nil {
		customer.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.MembershipTier != nil {
		if !models.ValidTier(*in.MembershipTier) {
			return nil, validation("unknown membership tier %q", *in.MembershipTier)
		}
		customer.MembershipTier = strings.ToLower(*in.MembershipTier)
	}
	if in.LoyaltyPoints != nil {
		customer.LoyaltyPoints = *in.LoyaltyPoints
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, dbError("create customer", err)
	}
	return customer, nil
}

func (s *CatalogService) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validation("name must not be empty")
		}
		fields["name"] = name
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.MembershipTier != nil {
		if !models.ValidTier(*in.MembershipTier) {
			return nil, validation("unknown membership tier %q", *in.MembershipTier)
		}
		fields["membership_tier"] = strings.ToLower(*in.MembershipTier)
	}
	if in.LoyaltyPoints != nil {
		fields["loyalty_points"] = *in.LoyaltyPoints
	}
	if len(fields) == 0 {
		return nil, validation("nothing to update")
	}
	if err := s.store.UpdateCustomer(ctx, id, fields); err != nil {
		return nil, dbError(fmt.Sprintf("customer %d", id), err)
	}
	return s.GetCustomer(ctx, id)
}
