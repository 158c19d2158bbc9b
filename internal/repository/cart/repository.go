package cart

import (
	"context"

	"mini-commerce/internal/domain"
)

// Repository stores one cart per user. Every item mutation recomputes the
// cart total before returning.
type Repository interface {
	// GetByUser returns domain.ErrNotFound when the user has no cart yet.
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// GetOrCreate returns the user's cart, creating an empty one if needed.
	// Inside a transaction the cart row stays locked until commit.
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem merges into an existing line for the same product, keeping the
	// price and name of the first add.
	AddItem(ctx context.Context, cartID string, item domain.CartItem) error
	// SetItemQuantity removes the line when quantity is zero.
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	Clear(ctx context.Context, cartID string) error
}
