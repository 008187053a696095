package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// LineItem is a resolved product/variant/size reference with the display
// snapshot taken from the product at resolution time.
type LineItem struct {
	ID           string          `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Variant      types.Variant   `json:"variant"`
	VariantIndex int             `json:"variant_index"`
	Size         enums.Size      `json:"size"`
	Quantity     int             `json:"quantity"`
}

// LineTotal returns price × quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
