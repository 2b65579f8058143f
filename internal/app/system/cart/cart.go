// internal/app/system/cart/cart.go

// Package cart implements the session cart: an ordered list of line items
// keyed by product number.
//
// A cart holds at most one line per product; re-adding a product increments
// its quantity instead of appending a duplicate. Quantities are decimal so
// weight-based products can be ordered in fractions of a unit. A quantity
// at or below zero removes the line.
//
// The cart itself is storage-agnostic. It serializes to a JSON array (the
// same shape the browser keeps in sessionStorage) and is persisted in the
// session cookie under SessionKey by auth.SessionManager.
package cart

import "encoding/json"

// SessionKey is the fixed session value key the serialized cart lives under.
const SessionKey = "koasa_cart"

// DefaultQuantityStep is the default increment/decrement step for the
// quantity buttons. It is configurable (koasa quantity_step) because a
// half-unit step only makes sense for weight-based products.
const DefaultQuantityStep = 0.5

// Item is one line in a cart. Name, Price, and Unit are snapshots of the
// product at add time; Name is carried for message composition only, the
// line's identity is ProductID.
type Item struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
}

// Subtotal returns price × quantity for this line.
func (it Item) Subtotal() float64 {
	return it.Price * it.Quantity
}

// Cart is an ordered sequence of items plus a list of subscribers notified
// after every mutation. It is not safe for concurrent use; each request
// works on its own decoded copy.
type Cart struct {
	items []Item
	subs  []func()
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Decode reconstructs a cart from its JSON serialization. Malformed or
// empty data yields an empty cart; stored state is never a reason to fail
// a page load.
func Decode(data []byte) *Cart {
	c := New()
	if len(data) == 0 {
		return c
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return c
	}
	c.items = items
	return c
}

// Encode serializes the cart as a JSON array of items.
func (c *Cart) Encode() []byte {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		// Items contain only plain values; Marshal cannot fail on them.
		return []byte("[]")
	}
	return data
}

// Subscribe registers fn to run after every mutation. An empty subscriber
// list is valid; the cart works headless.
func (c *Cart) Subscribe(fn func()) {
	c.subs = append(c.subs, fn)
}

func (c *Cart) notify() {
	for _, fn := range c.subs {
		fn()
	}
}

// Add puts one unit of the product in the cart, or increments the existing
// line's quantity by one.
func (c *Cart) Add(productID int64, name string, price float64, unit string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity++
			c.notify()
			return
		}
	}
	c.items = append(c.items, Item{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Unit:      unit,
		Quantity:  1,
	})
	c.notify()
}

// Remove deletes the line for productID. Removing an absent product is a
// no-op.
func (c *Cart) Remove(productID int64) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.notify()
			return
		}
	}
}

// SetQuantity sets the line's quantity. A quantity at or below zero removes
// the line. Setting a quantity for an absent product is a no-op.
func (c *Cart) SetQuantity(productID int64, quantity float64) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			c.notify()
			return
		}
	}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.items = nil
	c.notify()
}

// Total returns Σ price×quantity over all lines, recomputed fresh on every
// call.
func (c *Cart) Total() float64 {
	var sum float64
	for _, it := range c.items {
		sum += it.Subtotal()
	}
	return sum
}

// UnitCount returns Σ quantity over all lines. This is the badge count: a
// cumulative unit count, fractional units included, not the number of
// lines.
func (c *Cart) UnitCount() float64 {
	var sum float64
	for _, it := range c.items {
		sum += it.Quantity
	}
	return sum
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }
