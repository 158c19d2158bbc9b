package product

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/migrate"
)

func TestPostgres_CreateListGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	created, err := repo.Create(ctx, domain.Product{Title: "Laptop", Description: "desc", PriceCents: 150000, Stock: 3, Category: "electronics"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, domain.Product{Title: "Novel", Description: "desc", PriceCents: 1500, Stock: 9, Category: "books"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.List(ctx, ListFilter{Category: "electronics"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Laptop" || got.Stock != 3 {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestPostgres_DecrementStock(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	p, err := repo.Create(ctx, domain.Product{Title: "Laptop", Description: "d", PriceCents: 100, Stock: 2, Category: "c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.DecrementStock(ctx, p.ID, 3); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	after, err := repo.DecrementStock(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if after.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", after.Stock)
	}

	if err := repo.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := repo.DecrementStock(ctx, p.ID, 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
	if err := repo.IncrementStock(ctx, p.ID, 2); err != nil {
		t.Fatalf("IncrementStock on deleted product: %v", err)
	}
}

func TestPostgres_ConcurrentDecrementNeverOversells(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	const stock, buyers = 3, 20
	p, err := repo.Create(ctx, domain.Product{Title: "Console", Description: "d", PriceCents: 50000, Stock: stock, Category: "c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DecrementStock(ctx, p.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("DecrementStock: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != stock || short != buyers-stock {
		t.Fatalf("expected %d successes and %d rejections, got %d and %d", stock, buyers-stock, succeeded, short)
	}
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", got.Stock)
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
