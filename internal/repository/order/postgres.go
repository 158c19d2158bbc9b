package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/db"
	"mini-commerce/internal/domain"
)

const orderColumns = `id::text, user_id::text, total_cents, status, payment_status, created_at, updated_at`

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
	return &postgresRepo{db: conn, logger: logger.WithField("repo", "order")}
}

// Create inserts the order and its items. Run it inside a transaction so a
// failed item insert leaves no partial order behind.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, total_cents, status, payment_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns
	out, err := scanOrder(r.db.QueryRow(ctx, q,
		o.UserID,
		o.TotalCents,
		string(o.Status),
		string(o.PaymentStatus),
		o.CreatedAt,
		o.UpdatedAt,
	))
	if err != nil {
		r.logger.WithError(err).WithField("user_id", o.UserID).Error("insert order")
		return nil, err
	}

	for i, it := range o.Items {
		if _, err := r.db.Exec(ctx, `
INSERT INTO order_items (order_id, position, product_id, name, price_cents, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
`, out.ID, i, it.ProductID, it.Name, it.PriceCents, it.Quantity); err != nil {
			r.logger.WithError(err).WithField("order_id", out.ID).Error("insert order item")
			return nil, err
		}
	}
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("list orders")
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		o.Items = []domain.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := r.db.Query(ctx, `
SELECT order_id::text, product_id::text, name, price_cents, quantity
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`, ids)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("list order items")
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := itemRows.Scan(&orderID, &it.ProductID, &it.Name, &it.PriceCents, &it.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, itemRows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
RETURNING ` + orderColumns
	out, err := scanOrder(r.db.QueryRow(ctx, q, id, string(from), string(to), at.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the order vanished or someone moved it first.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: order %s is no longer %s", domain.ErrInvalidTransition, id, from)
		}
		r.logger.WithError(err).WithField("order_id", id).Error("update order status")
		return nil, err
	}
	items, err := r.loadItems(ctx, out.ID)
	if err != nil {
		return nil, err
	}
	out.Items = items
	return out, nil
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		r.logger.WithError(err).Error("get order")
		return nil, err
	}
	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.Query(ctx, `
SELECT product_id::text, name, price_cents, quantity
FROM order_items
WHERE order_id = $1
ORDER BY position
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.PriceCents, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status, payment string
	if err := row.Scan(&o.ID, &o.UserID, &o.TotalCents, &status, &payment, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(payment)
	return &o, nil
}
