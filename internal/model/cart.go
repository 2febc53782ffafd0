package model

// LineKey identifies a cart line. Two additions merge into one line iff
// product, size and colour all match; the same product in a different size
// or colour coexists as a distinct line.
type LineKey struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// CartLine represents one entry in the shopping cart.
type CartLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// Key returns the identity key for this line.
func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// Subtotal returns price * quantity for this line.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// CartState holds the cart lines in insertion order plus the drawer
// visibility flag. IsOpen is a UI flag and is never persisted.
type CartState struct {
	Lines  []CartLine `json:"lines"`
	IsOpen bool       `json:"-"`
}

// ItemCount returns the sum of quantities across all lines.
// Computed on read, never stored, so it cannot drift.
func (s CartState) ItemCount() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

// Total returns the sum of price*quantity across all lines.
// Computed on read, never stored, so it cannot drift.
func (s CartState) Total() float64 {
	total := 0.0
	for _, line := range s.Lines {
		total += line.Subtotal()
	}
	return total
}
