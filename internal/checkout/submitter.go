package checkout

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// OrderCreator creates orders from checkout payloads.
type OrderCreator interface {
	CreateOrder(ctx context.Context, payload OrderPayload) (*models.Order, error)
}

// Submitter builds and submits orders. It never retries.
type Submitter struct {
	orders  OrderCreator
	rates   Rates
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewSubmitter wires a submitter to the order creator.
func NewSubmitter(orders OrderCreator, rates Rates, m *metrics.OrderMetrics, logg *logger.Logger) (*Submitter, error) {
	if orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Submitter{orders: orders, rates: rates, metrics: m, logg: logg}, nil
}

// Rates returns the rates orders are priced with.
func (s *Submitter) Rates() Rates {
	return s.rates
}

// Submit builds the order for checkoutCart and sends it to the order
// creator. A persisted cart is cleared only after the order is created;
// creator errors and cart read errors are returned unmodified.
func (s *Submitter) Submit(ctx context.Context, checkoutCart CheckoutCart, customer Customer, paymentMethod string) (*models.Order, error) {
	if checkoutCart == nil {
		return nil, fmt.Errorf("checkout cart required")
	}
	kind := checkoutCart.Kind()
	ctx = s.logg.WithField(ctx, "cart_kind", kind)

	items, err := checkoutCart.Items()
	if err != nil {
		return nil, err
	}
	payload, err := BuildOrder(items, customer, paymentMethod, s.rates)
	if err != nil {
		s.metrics.IncSubmission(kind, err)
		return nil, err
	}

	order, err := s.orders.CreateOrder(ctx, payload)
	s.metrics.IncSubmission(kind, err)
	if err != nil {
		s.logg.WarnErr(ctx, "order submission failed", err)
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if persisted, ok := checkoutCart.(PersistedCart); ok && persisted.Session != nil {
		if err := persisted.Session.Clear(ctx); err != nil {
			s.logg.WarnErr(ctx, "order created but cart was not cleared", err)
		}
	}
	s.logg.Info(ctx, "order submitted")
	return order, nil
}
