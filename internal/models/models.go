package models

import (
	"time"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

const PaymentMethodPayOnDelivery = "pay_on_delivery"

const (
	ChangeTypeSold   = "sold"
	ChangeTypeAdd    = "add"
	ChangeTypeRemove = "remove"
)

const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// TerminalStatus reports whether no further customer transition is allowed.
func TerminalStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type Product struct {
	ID            uint    `gorm:"primaryKey;autoIncrement"                      json:"id"`
	Name          string  `gorm:"not null"                                      json:"name"`
	Description   string  `gorm:"not null"                                      json:"description"`
	Price         float64 `gorm:"not null"                                      json:"price"`
	StockQuantity int     `gorm:"not null;default:0;check:stock_quantity >= 0"  json:"stock_quantity"`
	IsActive      bool    `gorm:"not null;default:true"                         json:"is_active"`
}

type Order struct {
	ID                uint        `gorm:"primaryKey"           json:"id"`
	OrderNumber       string      `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID            uint        `gorm:"index;not null"       json:"user_id"`
	Status            string      `gorm:"not null"             json:"status"`
	PaymentStatus     string      `gorm:"not null"             json:"payment_status"`
	PaymentMethod     string      `gorm:"not null"             json:"payment_method"`
	TotalAmount       float64     `gorm:"not null"             json:"total_amount"`
	ShippingAddressID uint        `gorm:"not null"             json:"shipping_address_id"`
	BillingAddressID  uint        `gorm:"not null"             json:"billing_address_id"`
	Notes             string      `json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	Items             []OrderItem `gorm:"foreignKey:OrderID"   json:"items,omitempty"`
}

// OrderItem freezes the product name and unit price at purchase time, so a
// later catalog change or product deletion never corrupts order history.
type OrderItem struct {
	ID          uint    `gorm:"primaryKey"                  json:"id"`
	OrderID     uint    `gorm:"index;not null"              json:"order_id"`
	ProductID   uint    `gorm:"not null"                    json:"product_id"`
	ProductName string  `gorm:"not null"                    json:"product_name"`
	Quantity    int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   float64 `gorm:"not null"                    json:"unit_price"`
}

// AddressSnapshot is a point-in-time copy owned by one order. It is never
// shared with the user's address book and does not follow its edits.
type AddressSnapshot struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"index"      json:"order_id"`
	Type       string    `gorm:"not null"   json:"type"`
	Street     string    `gorm:"not null"   json:"street"`
	City       string    `gorm:"not null"   json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `gorm:"not null"   json:"postal_code"`
	Country    string    `json:"country,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// InventoryLogEntry is append-only: rows are created by every stock mutation
// and never updated or deleted. ActorID is nil for system-originated changes.
type InventoryLogEntry struct {
	ID               uint      `gorm:"primaryKey"     json:"id"`
	ProductID        uint      `gorm:"index;not null" json:"product_id"`
	ChangeType       string    `gorm:"not null"       json:"change_type"`
	QuantityChange   int       `gorm:"not null"       json:"quantity_change"`
	PreviousQuantity int       `gorm:"not null"       json:"previous_quantity"`
	NewQuantity      int       `gorm:"not null"       json:"new_quantity"`
	Reason           string    `json:"reason,omitempty"`
	ActorID          *uint     `gorm:"index"          json:"actor_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
