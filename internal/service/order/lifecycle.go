package order

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/events"
	"mini-commerce/internal/repository/uow"
)

// CancelResult reports whether the cancellation also suspended the owner.
type CancelResult struct {
	Order     *domain.Order
	Suspended bool
}

// Cancel cancels an order for its owner or an admin. Stock is restocked in
// the same transaction. When the owner cancels, their cancellation count is
// bumped and the account is blocked once it passes the threshold.
func (s *Service) Cancel(ctx context.Context, orderID string, actor domain.Actor) (*CancelResult, error) {
	if err := domain.CheckID("order", orderID); err != nil {
		return nil, err
	}
	var (
		res          CancelResult
		fraud        domain.FraudState
		ownerCancels bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := o.CheckCancellable(actor, now); err != nil {
			return err
		}
		if err := domain.CheckTransition(o.Status, domain.OrderStatusCancelled); err != nil {
			return err
		}
		if err := restock(ctx, r, o); err != nil {
			return err
		}
		res.Order, err = r.Orders.UpdateStatus(ctx, o.ID, o.Status, domain.OrderStatusCancelled, now)
		if err != nil {
			return err
		}

		ownerCancels = o.OwnedBy(actor.UserID)
		if ownerCancels {
			fraud, err = r.Users.RecordCancellation(ctx, o.UserID, now)
			if err != nil {
				return fmt.Errorf("record cancellation: %w", err)
			}
			res.Suspended = fraud.Blocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	actorLabel := "admin"
	if ownerCancels {
		actorLabel = "owner"
	}
	s.metrics.OrderCancelled(actorLabel)
	s.logger.WithFields(logrus.Fields{
		"order_id":  orderID,
		"actor":     actorLabel,
		"suspended": res.Suspended,
	}).Info("order cancelled")

	evs := []events.Event{events.New(events.TypeOrderCancelled, res.Order.ID, res.Order.UserID, res.Order.UpdatedAt, map[string]any{
		"cancelledBy": actorLabel,
	})}
	// Only the cancellation that crossed the threshold reports a new suspension.
	if ownerCancels && fraud.Blocked && fraud.CancellationCount == domain.MaxCancellations+1 {
		s.metrics.AccountSuspended()
		s.logger.WithField("user_id", res.Order.UserID).Warn("account suspended after repeated cancellations")
		evs = append(evs, events.New(events.TypeUserSuspended, res.Order.ID, res.Order.UserID, res.Order.UpdatedAt, map[string]any{
			"cancellationCount": fraud.CancellationCount,
		}))
	}
	s.publish(ctx, evs...)
	return &res, nil
}

// UpdateStatus is the admin path through the state machine. Pending to
// Cancelled restocks like Cancel but never counts against the owner.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus, actor domain.Actor) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}
	if err := domain.CheckID("order", orderID); err != nil {
		return nil, err
	}
	var (
		updated *domain.Order
		from    domain.OrderStatus
	)
	err := s.store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status
		if err := domain.CheckTransition(from, to); err != nil {
			return err
		}
		if to == domain.OrderStatusCancelled {
			if err := restock(ctx, r, o); err != nil {
				return err
			}
		}
		updated, err = r.Orders.UpdateStatus(ctx, o.ID, from, to, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransition(string(from), string(to))
	if to == domain.OrderStatusCancelled {
		s.metrics.OrderCancelled("admin")
	}
	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	}).Info("order status updated")
	s.publish(ctx, events.New(events.TypeOrderStatusChanged, updated.ID, updated.UserID, updated.UpdatedAt, map[string]any{
		"from": from,
		"to":   to,
	}))
	return updated, nil
}

func restock(ctx context.Context, r uow.Repos, o *domain.Order) error {
	for _, it := range o.Items {
		if err := r.Products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return fmt.Errorf("restock %s: %w", it.ProductID, err)
		}
	}
	return nil
}
