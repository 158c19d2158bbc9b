package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/order"
)

type orderRepo struct {
	v *view
}

var _ order.Repository = (*orderRepo)(nil)

func (r *orderRepo) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	o.ID = uuid.NewString()
	o = copyOrder(o)
	err := r.v.do(func(st *state) error {
		st.orders[o.ID] = orderRecord{order: o, seq: st.next()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := copyOrder(o)
	return &out, nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	err := r.v.do(func(st *state) error {
		rec, ok := st.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		out = copyOrder(rec.order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate needs no row lock here: a transaction already holds the store.
func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	var recs []orderRecord
	err := r.v.do(func(st *state) error {
		for _, rec := range st.orders {
			if rec.order.UserID == userID {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]domain.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, copyOrder(rec.order))
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	var out domain.Order
	err := r.v.do(func(st *state) error {
		rec, ok := st.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		if rec.order.Status != from {
			return fmt.Errorf("%w: order %s is no longer %s", domain.ErrInvalidTransition, id, from)
		}
		rec.order.Status = to
		rec.order.UpdatedAt = at.UTC()
		st.orders[id] = rec
		out = copyOrder(rec.order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
