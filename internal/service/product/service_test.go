package product

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/memory"
)

func newService() *Service {
	return New(memory.NewStore().Repos().Products, nil)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []CreateInput{
		{Description: "d", Category: "c"},
		{Title: "t", Category: "c"},
		{Title: "t", Description: "d"},
		{Title: "t", Description: "d", Category: "c", PriceCents: -1},
		{Title: "t", Description: "d", Category: "c", Stock: -1},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", in)
	}
}

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Title: "Laptop", Description: "fast", PriceCents: 1000, Stock: 5, Category: "electronics"})
	require.NoError(t, err)

	price := int64(1200)
	got, err := svc.Update(ctx, p.ID, UpdateInput{PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.PriceCents)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, "Laptop", got.Title)

	blank := "  "
	_, err = svc.Update(ctx, p.ID, UpdateInput{Title: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDelete_HidesProduct(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Title: "Mug", Description: "ceramic", PriceCents: 500, Stock: 1, Category: "kitchen"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))

	list, err := svc.List(ctx, "kitchen")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), domain.ErrProductNotFound)
}

func TestMalformedIDIsValidationError(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Get(ctx, "xyz")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Update(ctx, "xyz", UpdateInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, svc.Delete(ctx, "xyz"), domain.ErrValidation)
}
