package checkout

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Customer is the contact and delivery information entered at checkout.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	// UserID is the authenticated identity placing the order, if any.
	UserID *string
}

// Location joins the address and city the way orders store it.
func (c Customer) Location() string {
	address := strings.TrimSpace(c.Address)
	city := strings.TrimSpace(c.City)
	return address + ", " + city
}

// OrderItem is one line of an order payload.
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Size      enums.Size      `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// OrderPayload is submitted to the order creator. Total is trusted as sent.
type OrderPayload struct {
	CustomerName  string              `json:"customer_name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Location      string              `json:"location"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Items         []OrderItem         `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	UserID        *string             `json:"user_id,omitempty"`
}

// BuildOrder maps items into an order payload priced with rates. Amounts are
// rounded to cents here and nowhere earlier.
func BuildOrder(items []cart.LineItem, customer Customer, paymentMethod string, rates Rates) (OrderPayload, error) {
	if len(items) == 0 {
		return OrderPayload{}, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	method, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(paymentMethod)))
	if err != nil {
		return OrderPayload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]any{"payment_method": paymentMethod})
	}

	orderItems := make([]OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Color:     item.Variant.Color,
			Size:      item.Size,
			Price:     item.Price.Round(centPlaces),
			Quantity:  item.Quantity,
		})
	}
	totals := ComputeTotals(items, rates).Rounded()

	return OrderPayload{
		CustomerName:  strings.TrimSpace(customer.Name),
		Email:         strings.TrimSpace(customer.Email),
		Phone:         strings.TrimSpace(customer.Phone),
		Location:      customer.Location(),
		PaymentMethod: method,
		Items:         orderItems,
		Total:         totals.Total,
		UserID:        customer.UserID,
	}, nil
}
