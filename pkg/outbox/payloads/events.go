package payloads

import (
	"github.com/google/uuid"
)

// OrderCreatedItem is one purchased line in an order_created event.
type OrderCreatedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
}

// OrderCreatedEvent signals a submitted checkout.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID          `json:"order_id"`
	UserID        *string            `json:"user_id,omitempty"`
	Email         string             `json:"email"`
	PaymentMethod string             `json:"payment_method"`
	Total         string             `json:"total"`
	Items         []OrderCreatedItem `json:"items"`
}
