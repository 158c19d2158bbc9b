package domain

import "time"

type Cart struct {
	ID         string     `json:"id,omitempty"`
	UserID     string     `json:"userId"`
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"totalPrice"`
	UpdatedAt  time.Time  `json:"updatedAt,omitempty"`
}

// CartItem carries the price and name seen when the product was added.
type CartItem struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Recalculate derives TotalCents from the items. Call after every mutation.
func (c *Cart) Recalculate() {
	var total int64
	for _, it := range c.Items {
		total += it.PriceCents * int64(it.Quantity)
	}
	c.TotalCents = total
}

func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// Clear empties the cart in place; the cart itself is kept.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalCents = 0
}
