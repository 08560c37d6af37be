// internal/domain/cart/service.go
package cart

import (
	"context"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the read-only product source the cart validates against.
// The catalog service satisfies it; tests substitute a fake.
type Catalog interface {
	GetProduct(ctx context.Context, id uint) (*catalog.Product, error)
}

// Service handles cart business logic
type Service struct {
	db      *gorm.DB
	catalog Catalog
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cat Catalog) *Service {
	return &Service{
		db:      db,
		catalog: cat,
	}
}

// CartItemResponse represents a cart line with its resolved product
type CartItemResponse struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Image     string `json:"image"`
	UnitPrice int64  `json:"unit_price"` // Effective price at read time
	LineTotal int64  `json:"line_total"`
	InStock   bool   `json:"in_stock"`
}

// CartResponse represents a cart with items and derived totals
type CartResponse struct {
	UserID        uint               `json:"user_id"`
	Items         []CartItemResponse `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	TotalAmount   int64              `json:"total_amount"`
}

// AddToCartRequest represents add to cart request.
// An omitted quantity means one unit; an explicit zero or negative
// quantity is rejected.
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

// UpdateCartItemRequest represents update cart item request.
// A quantity of zero or below removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart retrieves the user's cart. A user without a cart gets an empty
// one; nothing is persisted until the first add.
func (s *Service) GetCart(ctx context.Context, userID uint) (*CartResponse, error) {
	var items []CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve cart")
	}

	return s.buildCartResponse(ctx, userID, items)
}

// AddItem adds a product to the cart. If the product is already in the
// cart the quantity is added to the existing line, atomically, so
// concurrent adds for the same user never lose increments.
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddToCartRequest) (*CartResponse, error) {
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 {
		return nil, apperr.New(apperr.InvalidArgument, "quantity must be a positive integer")
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, apperr.New(apperr.OutOfStock, "product %q is out of stock", product.Name)
	}

	now := time.Now().UTC()
	item := CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Upsert on (user_id, product_id): the increment happens in SQL
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": now,
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to add item to cart")
	}

	return s.GetCart(ctx, userID)
}

// SetItemQuantity sets an absolute quantity on an existing line.
// Zero or below removes the line (a no-op when the line is absent);
// a positive quantity on an absent line is an error, set never creates.
func (s *Service) SetItemQuantity(ctx context.Context, userID, productID uint, quantity int) (*CartResponse, error) {
	if quantity <= 0 {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&CartItem{}).Error
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "failed to remove cart item")
		}
		return s.GetCart(ctx, userID)
	}

	result := s.db.WithContext(ctx).Model(&CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, result.Error, "failed to update cart item")
	}
	if result.RowsAffected == 0 {
		return nil, apperr.New(apperr.NotFound, "product %d is not in the cart", productID)
	}

	return s.GetCart(ctx, userID)
}

// ClearCart removes all lines from the user's cart. Idempotent.
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&CartItem{}).Error
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "failed to clear cart")
	}
	return nil
}

// buildCartResponse resolves product projections and derives totals.
// Lines whose product has gone missing or unpurchasable stay visible so
// the user can fix their cart; checkout is where they become an error.
func (s *Service) buildCartResponse(ctx context.Context, userID uint, items []CartItem) (*CartResponse, error) {
	respItems := make([]CartItemResponse, 0, len(items))
	var totalQuantity int
	var totalAmount int64

	for _, item := range items {
		line := CartItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err == nil {
			line.Name = product.Name
			line.Slug = product.Slug
			line.Image = product.PrimaryImage()
			line.UnitPrice = product.EffectivePrice()
			line.LineTotal = line.UnitPrice * int64(item.Quantity)
			line.InStock = product.IsPurchasable()
		} else if !apperr.Is(err, apperr.NotFound) {
			return nil, err
		}

		respItems = append(respItems, line)
		totalQuantity += item.Quantity
		totalAmount += line.LineTotal
	}

	return &CartResponse{
		UserID:        userID,
		Items:         respItems,
		TotalQuantity: totalQuantity,
		TotalAmount:   totalAmount,
	}, nil
}
