// Package order places orders from carts and drives them through their
// lifecycle. Every operation that touches more than one entity runs inside a
// single unit of work.
package order

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/events"
	"mini-commerce/internal/repository/uow"
)

type recorder interface {
	OrderPlaced()
	CheckoutFailed(reason string)
	OrderCancelled(actor string)
	StatusTransition(from, to string)
	AccountSuspended()
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced() {}
func (nopRecorder) CheckoutFailed(string) {}
func (nopRecorder) OrderCancelled(string) {}
func (nopRecorder) StatusTransition(string, string) {}
func (nopRecorder) AccountSuspended() {}

type Service struct {
	store     uow.Store
	publisher events.Publisher
	metrics   recorder
	now       func() time.Time
	logger    logrus.FieldLogger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m recorder) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store uow.Store, logger logrus.FieldLogger, opts ...Option) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	s := &Service{
		store:     store,
		publisher: events.Nop{},
		metrics:   nopRecorder{},
		now:       time.Now,
		logger:    logger.WithField("component", "order"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListMine returns the user's orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.store.Repos().Orders.ListByUser(ctx, userID)
}

// Get returns an order visible to the actor: its owner or any admin.
func (s *Service) Get(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error) {
	if err := domain.CheckID("order", orderID); err != nil {
		return nil, err
	}
	o, err := s.store.Repos().Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}
	return o, nil
}

// publish runs after commit. A broker failure never undoes a committed order.
func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	for _, e := range evs {
		if err := s.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event":    e.Type,
				"order_id": e.OrderID,
			}).Warn("publish event")
		}
	}
}
