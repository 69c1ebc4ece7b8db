package transport

import "time"

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	ShippingAddress AddressRequest     `json:"shipping_address"`
	BillingAddress  *AddressRequest    `json:"billing_address,omitempty"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes,omitempty"`
	Items           []OrderItemRequest `json:"items"`
}

type UpdateOrderRequest struct {
	ShippingAddress *AddressRequest `json:"shipping_address,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status        string  `json:"status"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

type BulkStockUpdate struct {
	ProductID   uint   `json:"product_id"`
	NewQuantity int    `json:"new_quantity"`
	Reason      string `json:"reason,omitempty"`
}

type BulkStockRequest struct {
	Updates []BulkStockUpdate `json:"updates"`
}

type OrderSummary struct {
	ID            uint      `json:"id"`
	OrderNumber   string    `json:"order_number"`
	TotalAmount   float64   `json:"total_amount"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}
