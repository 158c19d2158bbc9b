package memory

import (
	"context"

	"github.com/google/uuid"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/cart"
)

type cartRepo struct {
	v *view
}

var _ cart.Repository = (*cartRepo)(nil)

func (r *cartRepo) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	var out domain.Cart
	err := r.v.do(func(st *state) error {
		c, ok := st.carts[userID]
		if !ok {
			return domain.ErrNotFound
		}
		out = copyCart(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepo) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	var out domain.Cart
	err := r.v.do(func(st *state) error {
		c, ok := st.carts[userID]
		if !ok {
			c = domain.Cart{
				ID:        uuid.NewString(),
				UserID:    userID,
				Items:     []domain.CartItem{},
				UpdatedAt: r.v.now(),
			}
			st.carts[userID] = c
		}
		out = copyCart(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepo) AddItem(_ context.Context, cartID string, item domain.CartItem) error {
	return r.mutate(cartID, func(c *domain.Cart) error {
		for i := range c.Items {
			if c.Items[i].ProductID == item.ProductID {
				c.Items[i].Quantity += item.Quantity
				return nil
			}
		}
		item.ID = uuid.NewString()
		item.CreatedAt = r.v.now()
		c.Items = append(c.Items, item)
		return nil
	})
}

func (r *cartRepo) SetItemQuantity(_ context.Context, cartID, itemID string, quantity int) error {
	return r.mutate(cartID, func(c *domain.Cart) error {
		for i := range c.Items {
			if c.Items[i].ID != itemID {
				continue
			}
			if quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = quantity
			}
			return nil
		}
		return domain.ErrCartItemNotFound
	})
}

func (r *cartRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	return r.SetItemQuantity(ctx, cartID, itemID, 0)
}

func (r *cartRepo) Clear(_ context.Context, cartID string) error {
	return r.mutate(cartID, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

// mutate applies fn to a copy of the cart and stores it with a fresh total.
func (r *cartRepo) mutate(cartID string, fn func(c *domain.Cart) error) error {
	return r.v.do(func(st *state) error {
		for userID, c := range st.carts {
			if c.ID != cartID {
				continue
			}
			c = copyCart(c)
			if err := fn(&c); err != nil {
				return err
			}
			c.Recalculate()
			c.UpdatedAt = r.v.now()
			st.carts[userID] = c
			return nil
		}
		return domain.ErrNotFound
	})
}
