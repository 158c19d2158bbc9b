package order

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/events"
	"mini-commerce/internal/repository/uow"
)

// PlaceOrder turns the user's cart into a Pending order. Stock is taken with
// a conditional decrement per line, prices and titles are read at that
// moment, and the cart is cleared, all in one transaction.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*domain.Order, error) {
	var placed *domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		cart, err := r.Carts.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if cart.Empty() {
			return domain.ErrEmptyCart
		}

		items := make([]domain.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			p, err := r.Products.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, domain.OrderItem{
				ProductID:  p.ID,
				Name:       p.Title,
				PriceCents: p.PriceCents,
				Quantity:   line.Quantity,
			})
		}

		placed, err = r.Orders.Create(ctx, domain.NewOrder(userID, items, s.now()))
		if err != nil {
			return err
		}
		return r.Carts.Clear(ctx, cart.ID)
	})
	if err != nil {
		reason := checkoutFailureReason(err)
		s.metrics.CheckoutFailed(reason)
		entry := s.logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "reason": reason})
		if reason == "internal" {
			entry.Error("checkout failed")
		} else {
			entry.Info("checkout rejected")
		}
		return nil, err
	}

	s.metrics.OrderPlaced()
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"order_id": placed.ID,
		"total":    placed.TotalCents,
	}).Info("order placed")
	s.publish(ctx, events.New(events.TypeOrderPlaced, placed.ID, userID, placed.CreatedAt, map[string]any{
		"totalAmount": placed.TotalCents,
		"items":       len(placed.Items),
	}))
	return placed, nil
}

func checkoutFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "aborted"
	}
	return "internal"
}
