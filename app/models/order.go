package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the status of an order on the kitchen board
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s *OrderStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("unsupported order status column type %T", value)
	}
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Next returns the status that follows s, or false when s is final
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusPreparing, true
	case OrderStatusPreparing:
		return OrderStatusReady, true
	case OrderStatusReady:
		return OrderStatusServed, true
	case OrderStatusServed:
		return OrderStatusCompleted, true
	}
	return s, false
}

// ActiveOrderStatuses are the statuses shown on the kitchen board
var ActiveOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusPreparing, OrderStatusReady}

// OrderType is how the order leaves the counter
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeaway OrderType = "takeaway"
)

// Valid reports whether t is dine-in or takeaway
func (t OrderType) Valid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway
}

// Order represents a checked-out cart sent to the kitchen
type Order struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Number    int             `gorm:"index" json:"number"`
	TableID   string          `json:"tableId,omitempty"`
	Status    OrderStatus     `gorm:"index" json:"status"`
	Type      OrderType       `json:"type"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"type:decimal(12,2)" json:"tax"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`
	CashierID string          `gorm:"size:36" json:"cashierId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BeforeCreate assigns an id to new orders
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is a line of an order, copied from the cart at checkout
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"index;size:36" json:"-"`
	ProductID string          `gorm:"size:36" json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Quantity  int             `json:"quantity"`
	Notes     string          `json:"notes,omitempty"`
}
