package domain

import "math"

// The functions below compute a new item sequence without touching their
// input, so a store can persist the result before committing it.

// WithAdded merges item into items by key, or appends it.
func WithAdded(items []LineItem, item LineItem) []LineItem {
	out := CloneItems(items)
	if i := IndexOf(out, item.Key()); i >= 0 {
		out[i].Quantity = addQuantity(out[i].Quantity, item.Quantity)
		return out
	}
	return append(out, item)
}

// addQuantity sums two non-negative quantities, saturating at math.MaxInt.
func addQuantity(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// WithRemoved drops the line with key k. The bool reports whether anything changed.
func WithRemoved(items []LineItem, k Key) ([]LineItem, bool) {
	i := IndexOf(items, k)
	if i < 0 {
		return items, false
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, true
}

// WithQuantity sets the quantity of line k; quantity <= 0 removes it.
func WithQuantity(items []LineItem, k Key, quantity int) ([]LineItem, bool) {
	if quantity <= 0 {
		return WithRemoved(items, k)
	}
	i := IndexOf(items, k)
	if i < 0 || items[i].Quantity == quantity {
		return items, false
	}
	out := CloneItems(items)
	out[i].Quantity = quantity
	return out, true
}

// WithPrice replaces the unit price of line k.
func WithPrice(items []LineItem, k Key, unitPriceCents int64) ([]LineItem, bool) {
	i := IndexOf(items, k)
	if i < 0 || items[i].UnitPriceCents == unitPriceCents {
		return items, false
	}
	out := CloneItems(items)
	out[i].UnitPriceCents = unitPriceCents
	return out, true
}
