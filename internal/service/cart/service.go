package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/uow"
)

// Service manages the per-user cart. Stock is checked here but only
// reserved at checkout.
type Service struct {
	store  uow.Store
	logger logrus.FieldLogger
}

func New(store uow.Store, logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{store: store, logger: logger.WithField("component", "cart")}
}

type AddItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Get returns the user's cart, or an empty one if none has been created yet.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.store.Repos().Carts.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	return c, err
}

// AddItem adds quantity of a product, merging with an existing line. The
// price and title are captured now; checkout re-reads them.
func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, fmt.Errorf("%w: productId is required", domain.ErrValidation)
	}
	if err := domain.CheckID("product", productID); err != nil {
		return nil, err
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	var out *domain.Cart
	err := s.store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		p, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		c, err := r.Carts.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		wanted := qty
		for _, it := range c.Items {
			if it.ProductID == p.ID {
				wanted += it.Quantity
			}
		}
		if err := checkStock(p, wanted); err != nil {
			return err
		}
		if err := r.Carts.AddItem(ctx, c.ID, domain.CartItem{
			ProductID:  p.ID,
			Quantity:   qty,
			PriceCents: p.PriceCents,
			Name:       p.Title,
		}); err != nil {
			return err
		}
		out, err = r.Carts.GetByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "product_id": productID, "quantity": qty}).Debug("cart item added")
	return out, nil
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, qty int) (*domain.Cart, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrValidation)
	}
	if err := domain.CheckID("cart item", itemID); err != nil {
		return nil, err
	}
	var out *domain.Cart
	err := s.store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		c, err := r.Carts.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		item, ok := findItem(c, itemID)
		if !ok {
			return domain.ErrCartItemNotFound
		}
		if qty > 0 {
			p, err := r.Products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := checkStock(p, qty); err != nil {
				return err
			}
		}
		if err := r.Carts.SetItemQuantity(ctx, c.ID, itemID, qty); err != nil {
			return err
		}
		out, err = r.Carts.GetByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	if err := domain.CheckID("cart item", itemID); err != nil {
		return nil, err
	}
	var out *domain.Cart
	err := s.store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		c, err := r.Carts.GetByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: cart not found", domain.ErrNotFound)
			}
			return err
		}
		if err := r.Carts.RemoveItem(ctx, c.ID, itemID); err != nil {
			return err
		}
		out, err = r.Carts.GetByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func findItem(c *domain.Cart, itemID string) (domain.CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

func checkStock(p *domain.Product, qty int) error {
	if p.Stock < qty {
		return fmt.Errorf("%w for %s: available %d", domain.ErrInsufficientStock, p.Title, p.Stock)
	}
	return nil
}
