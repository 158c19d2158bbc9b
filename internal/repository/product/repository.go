package product

import (
	"context"

	"mini-commerce/internal/domain"
)

// ListFilter narrows catalog listings. Zero value lists every live product.
type ListFilter struct {
	Category string
}

// Patch holds the fields of an admin edit. Nil fields are left unchanged so
// an edit never overwrites a concurrent stock change it did not ask for.
type Patch struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Stock       *int
	Category    *string
}

// Repository reads and writes products. Every read and stock update ignores
// soft-deleted products except IncrementStock, which restocks unconditionally.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p Patch) (*domain.Product, error)
	SoftDelete(ctx context.Context, id string) error
	// DecrementStock removes qty from stock only if at least qty is available,
	// as a single conditional update. It returns the product as of the decrement.
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}
