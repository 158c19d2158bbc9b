package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Deleted     bool      `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Live reports whether the product is visible to the catalog and checkout.
func (p Product) Live() bool {
	return !p.Deleted
}
