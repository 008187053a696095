package catalog

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// LineItemID derives the cart key for a product/variant/size triple.
func LineItemID(product models.Product, variantIndex int, size enums.Size) string {
	return fmt.Sprintf("%s-%d-%s", product.ID.String(), variantIndex, size)
}

// Resolve snapshots product into a LineItem for the chosen variant and size.
// The product's own size list is not consulted; only the size enum is.
func Resolve(product models.Product, variantIndex int, size string) (LineItem, error) {
	if len(product.Variants) == 0 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product has no variants").
			WithDetails(map[string]any{"product_id": product.ID.String()})
	}
	if variantIndex < 0 || variantIndex >= len(product.Variants) {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "variant index out of range").
			WithDetails(map[string]any{
				"product_id":    product.ID.String(),
				"variant_index": variantIndex,
				"variants":      len(product.Variants),
			})
	}
	size = strings.TrimSpace(size)
	if size == "" {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "size is required")
	}
	parsed, err := enums.ParseSize(strings.ToUpper(size))
	if err != nil {
		return LineItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size").
			WithDetails(map[string]any{"size": size})
	}

	return LineItem{
		ID:           LineItemID(product, variantIndex, parsed),
		ProductID:    product.ID,
		Name:         product.Name,
		Price:        product.Price,
		Variant:      product.Variants[variantIndex],
		VariantIndex: variantIndex,
		Size:         parsed,
		Quantity:     1,
	}, nil
}

// Resnapshot refreshes the display fields of item from the current product
// state, keeping its identity and quantity. ok is false when the stored
// variant index no longer exists on the product.
func Resnapshot(item LineItem, product models.Product) (LineItem, bool) {
	if item.VariantIndex < 0 || item.VariantIndex >= len(product.Variants) {
		return item, false
	}
	item.Name = product.Name
	item.Price = product.Price
	item.Variant = product.Variants[item.VariantIndex]
	return item, true
}
