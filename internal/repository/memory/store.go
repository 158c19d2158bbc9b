// Package memory is an in-process Store for local development and tests. It
// keeps the same transactional guarantees as the Postgres store by running
// each unit of work against a private copy of the state and swapping it in
// on success.
package memory

import (
	"context"
	"sync"
	"time"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/uow"
)

type orderRecord struct {
	order domain.Order
	seq   int64
}

type productRecord struct {
	product domain.Product
	seq     int64
}

type state struct {
	products map[string]productRecord
	users    map[string]domain.User
	carts    map[string]domain.Cart // keyed by user ID
	orders   map[string]orderRecord
	seq      int64
}

func newState() *state {
	return &state{
		products: make(map[string]productRecord),
		users:    make(map[string]domain.User),
		carts:    make(map[string]domain.Cart),
		orders:   make(map[string]orderRecord),
	}
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = copyCart(v)
	}
	for k, v := range s.orders {
		v.order = copyOrder(v.order)
		c.orders[k] = v
	}
	return c
}

// Store serializes units of work behind one mutex. Calls made through the
// Repos passed to an InTx callback must not reach back into Store.Repos.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ uow.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock overrides the time source used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Repos() uow.Repos {
	return bind(&view{store: s})
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, bind(&view{store: s, tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// view resolves the state an operation runs against: the transaction copy
// when inside InTx, otherwise the shared state under the store lock.
type view struct {
	store *Store
	tx    *state
}

func (v *view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v *view) now() time.Time {
	return v.store.now().UTC()
}

func bind(v *view) uow.Repos {
	return uow.Repos{
		Products: &productRepo{v},
		Carts:    &cartRepo{v},
		Orders:   &orderRepo{v},
		Users:    &userRepo{v},
	}
}

func copyCart(c domain.Cart) domain.Cart {
	c.Items = append([]domain.CartItem{}, c.Items...)
	return c
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem{}, o.Items...)
	return o
}
