package checkout

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

// Cart kinds reported in metrics and logs.
const (
	KindPersisted = "cart"
	KindEphemeral = "buy_now"
)

// CheckoutCart is what a checkout submits: the shopper's persisted cart or
// a single buy-now item. Only PersistedCart is ever cleared.
type CheckoutCart interface {
	Items() ([]cart.LineItem, error)
	Kind() string
	checkoutCart()
}

type cartSession interface {
	Items() ([]cart.LineItem, error)
	Clear(ctx context.Context) error
}

// PersistedCart submits the items of a cart session view. The view is bound
// to one identity, so reads and the post-order clear fail once another
// identity has been loaded into the session.
type PersistedCart struct {
	Session cartSession
}

func (p PersistedCart) Items() ([]cart.LineItem, error) {
	if p.Session == nil {
		return nil, nil
	}
	return p.Session.Items()
}

func (PersistedCart) Kind() string { return KindPersisted }

func (PersistedCart) checkoutCart() {}

// EphemeralCart submits one item without touching any stored cart.
type EphemeralCart struct {
	Item cart.LineItem
}

func (e EphemeralCart) Items() ([]cart.LineItem, error) {
	item := e.Item
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	return []cart.LineItem{item}, nil
}

func (EphemeralCart) Kind() string { return KindEphemeral }

func (EphemeralCart) checkoutCart() {}
