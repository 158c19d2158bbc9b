package cart

import (
	"context"
	"errors"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/db"
	"mini-commerce/internal/domain"
)

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
	return &postgresRepo{db: conn, logger: logger.WithField("repo", "cart")}
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, user_id::text, total_cents, updated_at
FROM carts
WHERE user_id = $1
`
	return r.fetchCart(ctx, q, userID)
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := r.db.Exec(ctx, `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("ensure cart")
		return nil, err
	}
	const q = `
SELECT id::text, user_id::text, total_cents, updated_at
FROM carts
WHERE user_id = $1
FOR UPDATE
`
	return r.fetchCart(ctx, q, userID)
}

func (r *postgresRepo) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	if _, err := r.db.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, quantity, price_cents, name)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, product_id)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
`, cartID, item.ProductID, item.Quantity, item.PriceCents, item.Name); err != nil {
		r.logger.WithError(err).WithField("cart_id", cartID).Error("add cart item")
		return err
	}
	return updateCartTotal(ctx, r.db, cartID)
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, cartID, itemID)
	}
	cmd, err := r.db.Exec(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2 AND cart_id = $3
`, quantity, itemID, cartID)
	if err != nil {
		r.logger.WithError(err).WithField("cart_id", cartID).Error("set cart item quantity")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return updateCartTotal(ctx, r.db, cartID)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	cmd, err := r.db.Exec(ctx, `
DELETE FROM cart_items
WHERE id = $1 AND cart_id = $2
`, itemID, cartID)
	if err != nil {
		r.logger.WithError(err).WithField("cart_id", cartID).Error("remove cart item")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return updateCartTotal(ctx, r.db, cartID)
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		r.logger.WithError(err).WithField("cart_id", cartID).Error("clear cart")
		return err
	}
	return updateCartTotal(ctx, r.db, cartID)
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...any) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.TotalCents,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT id::text, product_id::text, quantity, price_cents, name, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.Quantity,
			&item.PriceCents,
			&item.Name,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func updateCartTotal(ctx context.Context, conn db.DBTX, cartID string) error {
	_, err := conn.Exec(ctx, `
UPDATE carts
SET total_cents = COALESCE((
	SELECT SUM(price_cents * quantity)
	FROM cart_items
	WHERE cart_id = $1
), 0),
    updated_at = now()
WHERE id = $1
`, cartID)
	return err
}
