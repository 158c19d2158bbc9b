package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/product"
)

type productRepo struct {
	v *view
}

var _ product.Repository = (*productRepo)(nil)

func (r *productRepo) List(_ context.Context, f product.ListFilter) ([]domain.Product, error) {
	var recs []productRecord
	err := r.v.do(func(st *state) error {
		for _, rec := range st.products {
			if !rec.product.Live() {
				continue
			}
			if f.Category != "" && rec.product.Category != f.Category {
				continue
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.product)
	}
	return out, nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	err := r.v.do(func(st *state) error {
		rec, ok := st.products[id]
		if !ok || !rec.product.Live() {
			return domain.ErrProductNotFound
		}
		out = rec.product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	now := r.v.now()
	p.ID = uuid.NewString()
	p.Deleted = false
	p.CreatedAt = now
	p.UpdatedAt = now
	err := r.v.do(func(st *state) error {
		st.products[p.ID] = productRecord{product: p, seq: st.next()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Update(_ context.Context, id string, p product.Patch) (*domain.Product, error) {
	var out domain.Product
	err := r.v.do(func(st *state) error {
		rec, ok := st.products[id]
		if !ok || !rec.product.Live() {
			return domain.ErrProductNotFound
		}
		cur := rec.product
		if p.Title != nil {
			cur.Title = *p.Title
		}
		if p.Description != nil {
			cur.Description = *p.Description
		}
		if p.PriceCents != nil {
			cur.PriceCents = *p.PriceCents
		}
		if p.Stock != nil {
			cur.Stock = *p.Stock
		}
		if p.Category != nil {
			cur.Category = *p.Category
		}
		cur.UpdatedAt = r.v.now()
		rec.product = cur
		st.products[id] = rec
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) SoftDelete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		rec, ok := st.products[id]
		if !ok || !rec.product.Live() {
			return domain.ErrProductNotFound
		}
		rec.product.Deleted = true
		rec.product.UpdatedAt = r.v.now()
		st.products[id] = rec
		return nil
	})
}

func (r *productRepo) DecrementStock(_ context.Context, id string, qty int) (*domain.Product, error) {
	var out domain.Product
	err := r.v.do(func(st *state) error {
		rec, ok := st.products[id]
		if !ok || !rec.product.Live() {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		if rec.product.Stock < qty {
			return fmt.Errorf("%w for %s: available %d", domain.ErrInsufficientStock, rec.product.Title, rec.product.Stock)
		}
		rec.product.Stock -= qty
		rec.product.UpdatedAt = r.v.now()
		st.products[id] = rec
		out = rec.product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) IncrementStock(_ context.Context, id string, qty int) error {
	return r.v.do(func(st *state) error {
		rec, ok := st.products[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		rec.product.Stock += qty
		rec.product.UpdatedAt = r.v.now()
		st.products[id] = rec
		return nil
	})
}
