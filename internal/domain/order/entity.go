// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents the payment status of an order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// validStatusTransitions is the fulfillment state machine: a forward-only
// chain pending -> processing -> shipped -> delivered, with cancellation
// reachable from every non-terminal state. delivered and cancelled are
// terminal.
var validStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

// validPaymentTransitions is the payment state machine: pending resolves
// to paid or failed, both terminal.
var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
}

// IsValid reports whether s is a known order status value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed out of s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the state machine permits s -> next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid reports whether p is a known payment status value
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the payment state machine permits p -> next
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range validPaymentTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Actor identifies the caller of an order operation. Staff actors may
// see and transition every order; customers only read their own.
type Actor struct {
	UserID  uint
	IsStaff bool
}

// Order represents a placed order. Everything except status,
// payment_status, version and updated_at is immutable after creation.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	TotalAmount   int64         `gorm:"not null" json:"total_amount"` // In cents
	Status        OrderStatus   `gorm:"not null;default:'pending';size:20" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending';size:20" json:"payment_status"`
	PaymentMethod string        `gorm:"not null;size:50" json:"payment_method"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	// Version guards status writes: every transition is a compare-and-set
	// against (status, version) so racing staff updates cannot silently
	// overwrite each other.
	Version int `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a price snapshot of one cart line at checkout time.
// Later catalog changes never alter a placed order.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   uint   `gorm:"not null;index" json:"order_id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"not null;size:255" json:"name"`
	Slug      string `gorm:"size:255" json:"slug"`
	Image     string `gorm:"size:500" json:"image"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	UnitPrice int64  `gorm:"not null" json:"unit_price"` // Price per unit in cents
	LineTotal int64  `gorm:"not null" json:"line_total"` // Quantity * UnitPrice

	CreatedAt time.Time `json:"created_at"`
}

// ShippingAddress is the delivery address embedded in the order
type ShippingAddress struct {
	Name       string `gorm:"size:255" json:"name" binding:"required"`
	Street     string `gorm:"size:255" json:"street" binding:"required"`
	City       string `gorm:"size:100" json:"city" binding:"required"`
	State      string `gorm:"size:100" json:"state"`
	PostalCode string `gorm:"size:20" json:"postal_code" binding:"required"`
	Country    string `gorm:"size:100" json:"country" binding:"required"`
	Phone      string `gorm:"size:20" json:"phone"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// GenerateOrderNumber derives the display order number from the row ID
func GenerateOrderNumber(orderID uint, createdAt time.Time) string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", createdAt.Format("20060102"), orderID)
}

// GetFormattedTotal returns total amount as a float
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// IsOwnedBy reports whether the order belongs to the given user
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}
