package domain

import "time"

type Cart struct {
	CustomerID string
	Items      []CartItem
	CreatedAt  time.Time
}

// CartItem is unique per (customer, SKU); adding the same SKU again
// sums quantities instead of creating a second row.
type CartItem struct {
	SKUID    string
	Quantity int
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
