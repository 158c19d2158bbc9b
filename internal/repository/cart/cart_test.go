package cart

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/migrate"
)

func TestPostgres_AddMergeAndTotals(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	var userID, productID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash) VALUES ('U', 'u@example.com', 'x') RETURNING id::text`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO products (title, description, price_cents, stock, category) VALUES ('Mouse', 'd', 500, 10, 'c') RETURNING id::text`).Scan(&productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	repo := NewPostgres(pool, nil)
	if _, err := repo.GetByUser(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no cart yet, got %v", err)
	}
	c, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if err := repo.AddItem(ctx, c.ID, domain.CartItem{ProductID: productID, Quantity: 1, PriceCents: 500, Name: "Mouse"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := repo.AddItem(ctx, c.ID, domain.CartItem{ProductID: productID, Quantity: 2, PriceCents: 700, Name: "Mouse"}); err != nil {
		t.Fatalf("AddItem merge: %v", err)
	}

	got, err := repo.GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 || got.TotalCents != 1500 {
		t.Fatalf("unexpected cart %+v", got)
	}

	if err := repo.Clear(ctx, c.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = repo.GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(got.Items) != 0 || got.TotalCents != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool, nil); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, cart_items, carts, products, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
