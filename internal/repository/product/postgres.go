package product

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/db"
	"mini-commerce/internal/domain"
)

// livePredicate is the single soft-delete filter shared by every product query.
const livePredicate = "deleted = false"

const productColumns = `id::text, title, description, price_cents, stock, category, deleted, created_at, updated_at`

type postgresRepo struct {
	db     db.DBTX
	logger logrus.FieldLogger
}

func NewPostgres(conn db.DBTX, logger logrus.FieldLogger) Repository {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &postgresRepo{db: conn, logger: logger.WithField("repo", "product")}
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE ` + livePredicate
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		q += ` AND category = $1`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		r.logger.WithError(err).WithField("category", f.Category).Error("list products")
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.WithError(err).Error("list products rows")
		return nil, err
	}
	r.logger.WithField("count", len(result)).Debug("listed products")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND ` + livePredicate
	p, err := scanProduct(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		r.logger.WithError(err).WithField("product_id", id).Error("get product")
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (title, description, price_cents, stock, category)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + productColumns
	out, err := scanProduct(r.db.QueryRow(ctx, q, p.Title, p.Description, p.PriceCents, p.Stock, p.Category))
	if err != nil {
		r.logger.WithError(err).WithField("title", p.Title).Error("create product")
		return nil, err
	}
	r.logger.WithField("product_id", out.ID).Info("product created")
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, p Patch) (*domain.Product, error) {
	q := `
UPDATE products
SET title = COALESCE($2, title),
    description = COALESCE($3, description),
    price_cents = COALESCE($4, price_cents),
    stock = COALESCE($5, stock),
    category = COALESCE($6, category),
    updated_at = now()
WHERE id = $1 AND ` + livePredicate + `
RETURNING ` + productColumns
	out, err := scanProduct(r.db.QueryRow(ctx, q, id, p.Title, p.Description, p.PriceCents, p.Stock, p.Category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		r.logger.WithError(err).WithField("product_id", id).Error("update product")
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) SoftDelete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE products SET deleted = true, updated_at = now() WHERE id = $1 AND `+livePredicate, id)
	if err != nil {
		r.logger.WithError(err).WithField("product_id", id).Error("soft delete product")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *postgresRepo) DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, error) {
	q := `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND ` + livePredicate + ` AND stock >= $2
RETURNING ` + productColumns
	out, err := scanProduct(r.db.QueryRow(ctx, q, id, qty))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.WithError(err).WithField("product_id", id).Error("decrement stock")
		return nil, err
	}

	// The conditional update matched nothing: tell a missing product from a short one.
	var title string
	var stock int
	err = r.db.QueryRow(ctx, `SELECT title, stock FROM products WHERE id = $1 AND `+livePredicate, id).Scan(&title, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"product_id": id, "requested": qty, "available": stock}).Info("stock short")
	return nil, fmt.Errorf("%w for %s: available %d", domain.ErrInsufficientStock, title, stock)
}

func (r *postgresRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, id, qty)
	if err != nil {
		r.logger.WithError(err).WithField("product_id", id).Error("increment stock")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.Stock, &p.Category, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
