package domain

// Key identifies a cart line: the same artwork in two sizes is two lines.
type Key struct {
	ArtworkID string
	Size      string
}

type LineItem struct {
	ArtworkID      string
	Size           string
	UnitPriceCents int64
	Quantity       int

	// Display only; the catalog is authoritative.
	Title    string
	ImageURL string
}

func (li LineItem) Key() Key {
	return Key{ArtworkID: li.ArtworkID, Size: li.Size}
}

func (li LineItem) LineTotalCents() int64 {
	return li.UnitPriceCents * int64(li.Quantity)
}

// State is an immutable view of a cart. Items are in insertion order.
type State struct {
	Items  []LineItem
	IsOpen bool
}

func (s State) TotalItems() int {
	return TotalItems(s.Items)
}

func (s State) TotalCents() int64 {
	return TotalCents(s.Items)
}

// Find returns the line with key k.
func (s State) Find(k Key) (LineItem, bool) {
	if i := IndexOf(s.Items, k); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

func TotalItems(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func TotalCents(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotalCents()
	}
	return total
}

func IndexOf(items []LineItem, k Key) int {
	for i, it := range items {
		if it.Key() == k {
			return i
		}
	}
	return -1
}

func CloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
