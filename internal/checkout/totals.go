package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const centPlaces = 2

// Rates are the fixed pricing rules applied at checkout.
type Rates struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultRates is 8% tax and 9.99 shipping unless the subtotal exceeds 50.
func DefaultRates() Rates {
	return Rates{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.RequireFromString("9.99"),
	}
}

// RatesFromConfig reads the configured cart rates.
func RatesFromConfig(cfg config.CartConfig) Rates {
	return Rates{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
	}
}

// Totals is the checkout breakdown. Values are exact; use Rounded for
// presentation or order payloads.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ShippingFor returns the shipping fee for subtotal. Shipping is free only
// when subtotal is strictly above the threshold.
func (r Rates) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(r.FreeShippingThreshold) {
		return decimal.Zero
	}
	return r.ShippingFee
}

// ComputeTotals derives subtotal, tax, shipping and total from items. An
// empty item list yields all zeros.
func ComputeTotals(items []cart.LineItem, rates Rates) Totals {
	if len(items) == 0 {
		return Totals{
			Subtotal: decimal.Zero,
			Tax:      decimal.Zero,
			Shipping: decimal.Zero,
			Total:    decimal.Zero,
		}
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax := subtotal.Mul(rates.TaxRate)
	shipping := rates.ShippingFor(subtotal)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Rounded rounds every amount to cents, half away from zero.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(centPlaces),
		Tax:      t.Tax.Round(centPlaces),
		Shipping: t.Shipping.Round(centPlaces),
		Total:    t.Total.Round(centPlaces),
	}
}
