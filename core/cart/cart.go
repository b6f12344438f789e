// Package cart keeps the working shopping cart for the current
// identity consistent with the remote cart resource. All mutation goes
// through the Store; the cart value itself is plain data.
package cart

// Item is one product's presence in the cart. Items are unique by
// ProductID and always carry Quantity >= 1; a mutation that would
// drive the quantity below 1 removes the item instead.
type Item struct {
	ProductID int     `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Thumbnail string  `json:"thumbnail"`
	Quantity  int     `json:"quantity"`
}

// Cart is the working cart. Total and TotalQuantity are derived from
// Items after every mutation, never maintained by deltas, so they
// cannot drift from the line items.
type Cart struct {
	Items         []Item  `json:"products"`
	Total         float64 `json:"total"`
	TotalQuantity int     `json:"totalQuantity"`
}

// Product is what the UI hands to Add: the product card's identity,
// display fields and unit price.
type Product struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Thumbnail string  `json:"thumbnail"`
}

func (c *Cart) recompute() {
	var total float64
	var qty int
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
		qty += it.Quantity
	}
	c.Total = total
	c.TotalQuantity = qty
}

func (c *Cart) find(productID int) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
