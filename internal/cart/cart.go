package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

// LineItem is one cart entry.
type LineItem = catalog.LineItem

// Cart is an ordered set of line items keyed by LineItem.ID. Insertion order
// is display order.
type Cart struct {
	items []LineItem
}

// NewCart builds a cart from items, merging duplicate ids.
func NewCart(items ...LineItem) Cart {
	var c Cart
	for _, item := range items {
		c.Add(item, item.Quantity)
	}
	return c
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends item, or increments the quantity of the entry sharing its ID.
// A merge keeps the existing snapshot fields. quantity <= 0 counts as 1.
func (c *Cart) Add(item LineItem, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	if idx := c.indexOf(item.ID); idx >= 0 {
		c.items[idx].Quantity += quantity
		return
	}
	item.Quantity = quantity
	c.items = append(c.items, item)
}

// Remove deletes the entry with id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
}

// UpdateQuantity sets the quantity of id; quantity <= 0 removes it.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	if idx := c.indexOf(id); idx >= 0 {
		c.items[idx].Quantity = quantity
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Total is Σ price × quantity.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount is Σ quantity.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Len is the number of distinct line items.
func (c Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the line items in display order.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Clone returns an independent copy of c.
func (c Cart) Clone() Cart {
	return Cart{items: c.Items()}
}
