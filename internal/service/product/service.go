package product

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	productrepo "mini-commerce/internal/repository/product"
)

type Service struct {
	repo   productrepo.Repository
	logger logrus.FieldLogger
}

func New(repo productrepo.Repository, logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{repo: repo, logger: logger.WithField("component", "product")}
}

type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
}

// UpdateInput is a partial edit; omitted fields keep their current value.
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price"`
	Stock       *int    `json:"stock"`
	Category    *string `json:"category"`
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.List(ctx, productrepo.ListFilter{Category: strings.TrimSpace(category)})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if err := domain.CheckID("product", id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	p := domain.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
	}
	switch {
	case p.Title == "":
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	case p.Description == "":
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	case p.Category == "":
		return nil, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	if err := checkAmounts(&p.PriceCents, &p.Stock); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error) {
	if err := domain.CheckID("product", id); err != nil {
		return nil, err
	}
	patch := productrepo.Patch{
		PriceCents: in.PriceCents,
		Stock:      in.Stock,
	}
	var err error
	if patch.Title, err = nonEmpty("title", in.Title); err != nil {
		return nil, err
	}
	if patch.Description, err = nonEmpty("description", in.Description); err != nil {
		return nil, err
	}
	if patch.Category, err = nonEmpty("category", in.Category); err != nil {
		return nil, err
	}
	if err := checkAmounts(in.PriceCents, in.Stock); err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("product_id", id).Info("product updated")
	return p, nil
}

// Delete hides the product from the catalog and checkout. Orders keep their
// snapshots of it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := domain.CheckID("product", id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

func nonEmpty(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s cannot be empty", domain.ErrValidation, field)
	}
	return &trimmed, nil
}

func checkAmounts(price *int64, stock *int) error {
	if price != nil && *price < 0 {
		return fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}
	if stock != nil && *stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	return nil
}
