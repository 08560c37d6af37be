// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles catalog business logic. The cart and order services
// consume it as their read-only product source.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Category   string `form:"category"`
	BestSeller *bool  `form:"best_seller"`
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
}

// CreateProductRequest represents admin product creation data
type CreateProductRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	Price           int64   `json:"price" binding:"required,min=1"`
	DiscountedPrice int64   `json:"discounted_price" binding:"min=0"`
	Images          string  `json:"images"`
	Rating          float64 `json:"rating" binding:"min=0,max=5"`
	BestSeller      bool    `json:"best_seller"`
	CategoryID      uint    `json:"category_id" binding:"required"`
	InStock         *bool   `json:"in_stock"`
}

// UpdateProductRequest represents admin product update data.
// Pointer fields distinguish "leave unchanged" from zero values.
type UpdateProductRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *int64   `json:"price"`
	DiscountedPrice *int64   `json:"discounted_price"`
	Images          *string  `json:"images"`
	Rating          *float64 `json:"rating"`
	BestSeller      *bool    `json:"best_seller"`
	CategoryID      *uint    `json:"category_id"`
	InStock         *bool    `json:"in_stock"`
	IsActive        *bool    `json:"is_active"`
}

// CreateCategoryRequest represents admin category creation data
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "product %d not found", id)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve product")
	}
	return &product, nil
}

// GetProductBySlug retrieves a single active product by slug
func (s *Service) GetProductBySlug(ctx context.Context, productSlug string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("slug = ? AND is_active = ?", productSlug, true).
		First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "product %q not found", productSlug)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve product")
	}
	return &product, nil
}

// ListProducts retrieves active products with optional filtering
func (s *Service) ListProducts(ctx context.Context, req *ProductListRequest) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Where("is_active = ?", true)

	if req.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", req.Category)
	}
	if req.BestSeller != nil {
		query = query.Where("best_seller = ?", *req.BestSeller)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "failed to count products")
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "failed to retrieve products")
	}

	return products, total, nil
}

// ListCategories retrieves all active categories
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve categories")
	}
	return categories, nil
}

// CreateProduct creates a new product (admin)
func (s *Service) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	if req.DiscountedPrice > 0 && req.DiscountedPrice >= req.Price {
		return nil, apperr.New(apperr.InvalidArgument, "discounted price must be below list price")
	}

	var category Category
	if err := s.db.WithContext(ctx).First(&category, req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "category %d not found", req.CategoryID)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve category")
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	productSlug, err := s.uniqueProductSlug(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	product := Product{
		Slug:            productSlug,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Images:          req.Images,
		Rating:          req.Rating,
		BestSeller:      req.BestSeller,
		CategoryID:      req.CategoryID,
		InStock:         inStock,
		IsActive:        true,
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to create product")
	}

	product.Category = category
	return &product, nil
}

// UpdateProduct updates a product (admin)
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, apperr.New(apperr.InvalidArgument, "price must be positive")
		}
		updates["price"] = *req.Price
	}
	if req.DiscountedPrice != nil {
		if *req.DiscountedPrice < 0 {
			return nil, apperr.New(apperr.InvalidArgument, "discounted price cannot be negative")
		}
		updates["discounted_price"] = *req.DiscountedPrice
	}
	if req.Images != nil {
		updates["images"] = *req.Images
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.BestSeller != nil {
		updates["best_seller"] = *req.BestSeller
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to update product")
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes a product (admin)
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return apperr.Wrap(apperr.Internal, result.Error, "failed to delete product")
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "product %d not found", id)
	}
	return nil
}

// CreateCategory creates a new category (admin)
func (s *Service) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*Category, error) {
	category := Category{
		Slug:        slug.Make(req.Name),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Image:       req.Image,
		IsActive:    true,
	}

	var existing Category
	err := s.db.WithContext(ctx).Where("slug = ?", category.Slug).First(&existing).Error
	if err == nil {
		return nil, apperr.New(apperr.Conflict, "category %q already exists", category.Slug)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to check category slug")
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to create category")
	}
	return &category, nil
}

// uniqueProductSlug derives a URL slug from the product name, suffixing a
// counter when the plain slug is already taken.
func (s *Service) uniqueProductSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		err := s.db.WithContext(ctx).Model(&Product{}).
			Where("slug = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", apperr.Wrap(apperr.Internal, err, "failed to check product slug")
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
