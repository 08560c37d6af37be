// internal/domain/order/service.go
package order

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Catalog is the read-only product source orders are validated against.
// The catalog service satisfies it; tests substitute a fake.
type Catalog interface {
	GetProduct(ctx context.Context, id uint) (*catalog.Product, error)
}

// Service handles order creation and the order lifecycle
type Service struct {
	db      *gorm.DB
	catalog Catalog
}

// NewService creates a new order service
func NewService(db *gorm.DB, cat Catalog) *Service {
	return &Service{
		db:      db,
		catalog: cat,
	}
}

// PlaceOrderRequest represents order creation data. Prices and totals are
// never part of the request; the server computes them from the catalog.
type PlaceOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Status OrderStatus `form:"status"`
	UserID uint        `form:"user_id"`
	Page   int         `form:"page,default=1"`
	Limit  int         `form:"limit,default=20"`
}

// OrderListResponse represents an order list with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PlaceOrder converts the user's cart into an immutable order.
//
// The cart read, the per-line catalog validation, the order insert and the
// cart clear are one transaction: either the order exists and the cart is
// empty, or neither happened. Each cart row is cleared with a guard on its
// read quantity, so a concurrent cart mutation or a racing checkout makes
// the transaction fail closed instead of selling stale contents.
//
// Payment is simulated synchronously at this boundary: new orders are
// persisted as status=processing, payment_status=paid. A real payment
// integration would start at payment_status=pending and resolve it
// asynchronously.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *PlaceOrderRequest) (*Order, error) {
	if err := validatePlaceOrderRequest(req); err != nil {
		return nil, err
	}

	var orderID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []cart.CartItem
		if err := tx.Where("user_id = ?", userID).
			Order("created_at ASC").
			Find(&items).Error; err != nil {
			return apperr.Wrap(apperr.Internal, err, "failed to read cart")
		}
		if len(items) == 0 {
			return apperr.New(apperr.EmptyCart, "cart is empty")
		}

		// Re-fetch authoritative product data; cart-time prices are not
		// trusted and a line may have gone unpurchasable since it was added.
		orderItems := make([]OrderItem, 0, len(items))
		var totalAmount int64
		for _, item := range items {
			product, err := s.catalog.GetProduct(ctx, item.ProductID)
			if err != nil {
				if apperr.Is(err, apperr.NotFound) {
					return apperr.New(apperr.ProductUnavailable,
						"product %d is no longer available", item.ProductID)
				}
				return err
			}
			if !product.IsPurchasable() {
				return apperr.New(apperr.ProductUnavailable,
					"product %q is no longer available", product.Name)
			}

			unitPrice := product.EffectivePrice()
			orderItems = append(orderItems, OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Slug:      product.Slug,
				Image:     product.PrimaryImage(),
				Quantity:  item.Quantity,
				UnitPrice: unitPrice,
				LineTotal: unitPrice * int64(item.Quantity),
			})
			totalAmount += unitPrice * int64(item.Quantity)
		}

		now := time.Now().UTC()
		newOrder := Order{
			// Provisional value; order_number is unique and the final number
			// needs the row ID, so it is rewritten right after the insert.
			OrderNumber:     uuid.NewString(),
			UserID:          userID,
			TotalAmount:     totalAmount,
			Status:          OrderStatusProcessing,
			PaymentStatus:   PaymentStatusPaid,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.ShippingAddress,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&newOrder).Error; err != nil {
			return apperr.Wrap(apperr.Internal, err, "failed to create order")
		}

		newOrder.OrderNumber = GenerateOrderNumber(newOrder.ID, now)
		if err := tx.Model(&newOrder).
			Update("order_number", newOrder.OrderNumber).Error; err != nil {
			return apperr.Wrap(apperr.Internal, err, "failed to set order number")
		}

		for i := range orderItems {
			orderItems[i].OrderID = newOrder.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return apperr.Wrap(apperr.Internal, err, "failed to create order item")
			}
		}

		if err := removeCheckedOutItems(tx, items); err != nil {
			return err
		}

		orderID = newOrder.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadOrder(ctx, orderID)
}

// removeCheckedOutItems clears the cart rows that became order lines,
// guarding each delete on the quantity snapshotted at the start of checkout.
// A row that vanished or changed means a racing checkout or cart mutation
// won; the enclosing transaction aborts so nothing is double-sold.
func removeCheckedOutItems(tx *gorm.DB, items []cart.CartItem) error {
	for _, item := range items {
		result := tx.Where("id = ? AND quantity = ?", item.ID, item.Quantity).
			Delete(&cart.CartItem{})
		if result.Error != nil {
			return apperr.Wrap(apperr.Internal, result.Error, "failed to clear cart")
		}
		if result.RowsAffected == 0 {
			return apperr.New(apperr.Conflict, "cart changed during checkout, please retry")
		}
	}
	return nil
}

// GetOrder retrieves a single order. The owner and staff may read it;
// everyone else gets NotFound so order existence is never leaked.
func (s *Service) GetOrder(ctx context.Context, actor Actor, orderID uint) (*Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.IsStaff && !order.IsOwnedBy(actor.UserID) {
		// Deliberately indistinguishable from a missing order
		return nil, apperr.New(apperr.NotFound, "order %d not found", orderID)
	}

	return order, nil
}

// ListOrders retrieves orders newest-first. Customers always get their
// own orders regardless of any requested filter; staff see all orders and
// may filter by status or user.
func (s *Service) ListOrders(ctx context.Context, actor Actor, req *OrderListRequest) (*OrderListResponse, error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, apperr.New(apperr.InvalidArgument, "invalid order status %q", req.Status)
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Preload("Items")

	if actor.IsStaff {
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.UserID > 0 {
			query = query.Where("user_id = ?", req.UserID)
		}
	} else {
		// Server-side ownership filter; a client-supplied user_id is ignored
		query = query.Where("user_id = ?", actor.UserID)
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to count orders")
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var orders []Order
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve orders")
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// UpdateStatus applies a fulfillment status transition. Staff only.
//
// The write is a compare-and-set against the status and version read here,
// so two racing updates resolve to exactly one winner; the loser is
// re-validated against the new current state.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, orderID uint, newStatus OrderStatus) (*Order, error) {
	if !actor.IsStaff {
		return nil, apperr.New(apperr.Forbidden, "staff access required")
	}
	if !newStatus.IsValid() {
		return nil, apperr.New(apperr.InvalidArgument, "invalid order status %q", newStatus)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, apperr.New(apperr.InvalidTransition,
			"cannot transition order from %s to %s", order.Status, newStatus)
	}

	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ? AND version = ?", orderID, order.Status, order.Version).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"version":    order.Version + 1,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, result.Error, "failed to update order status")
	}
	if result.RowsAffected == 0 {
		return nil, s.conflictAfterLostRace(ctx, orderID, newStatus)
	}

	return s.loadOrder(ctx, orderID)
}

// UpdatePaymentStatus applies a payment status transition. Staff only.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor Actor, orderID uint, newStatus PaymentStatus) (*Order, error) {
	if !actor.IsStaff {
		return nil, apperr.New(apperr.Forbidden, "staff access required")
	}
	if !newStatus.IsValid() {
		return nil, apperr.New(apperr.InvalidArgument, "invalid payment status %q", newStatus)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.PaymentStatus.CanTransitionTo(newStatus) {
		return nil, apperr.New(apperr.InvalidTransition,
			"cannot transition payment from %s to %s", order.PaymentStatus, newStatus)
	}

	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ? AND version = ?", orderID, order.PaymentStatus, order.Version).
		Updates(map[string]interface{}{
			"payment_status": newStatus,
			"version":        order.Version + 1,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, result.Error, "failed to update payment status")
	}
	if result.RowsAffected == 0 {
		return nil, apperr.New(apperr.Conflict, "order was updated concurrently, please retry")
	}

	return s.loadOrder(ctx, orderID)
}

// conflictAfterLostRace classifies a failed compare-and-set: if the state
// the order moved to no longer permits the requested transition the caller
// gets InvalidTransition, otherwise a retryable Conflict.
func (s *Service) conflictAfterLostRace(ctx context.Context, orderID uint, requested OrderStatus) error {
	current, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(requested) {
		return apperr.New(apperr.InvalidTransition,
			"cannot transition order from %s to %s", current.Status, requested)
	}
	return apperr.New(apperr.Conflict, "order was updated concurrently, please retry")
}

// loadOrder fetches an order with its items, without authorization checks
func (s *Service) loadOrder(ctx context.Context, orderID uint) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "order %d not found", orderID)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to retrieve order")
	}
	return &order, nil
}

func validatePlaceOrderRequest(req *PlaceOrderRequest) error {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return apperr.New(apperr.InvalidArgument, "payment method is required")
	}

	addr := req.ShippingAddress
	missing := []string{}
	if strings.TrimSpace(addr.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(addr.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if strings.TrimSpace(addr.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return apperr.New(apperr.InvalidArgument,
			"shipping address is missing required fields: %s", strings.Join(missing, ", "))
	}

	return nil
}
