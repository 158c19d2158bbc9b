// Package uow groups the repositories behind a single transactional boundary
// so checkout and cancellation commit all of their writes or none.
package uow

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/db"
	"mini-commerce/internal/repository/cart"
	"mini-commerce/internal/repository/order"
	"mini-commerce/internal/repository/product"
	"mini-commerce/internal/repository/user"
)

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Products product.Repository
	Carts    cart.Repository
	Orders   order.Repository
	Users    user.Repository
}

// Store hands out repositories and runs units of work. If fn returns an
// error, nothing it wrote through the Repos is kept.
type Store interface {
	Repos() Repos
	InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	Ping(ctx context.Context) error
}

type postgresStore struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
	repos  Repos
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &postgresStore{
		pool:   pool,
		logger: logger,
		repos:  bind(pool, logger),
	}
}

func bind(conn db.DBTX, logger logrus.FieldLogger) Repos {
	return Repos{
		Products: product.NewPostgres(conn, logger),
		Carts:    cart.NewPostgres(conn, logger),
		Orders:   order.NewPostgres(conn, logger),
		Users:    user.NewPostgres(conn, logger),
	}
}

func (s *postgresStore) Repos() Repos {
	return s.repos
}

func (s *postgresStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, bind(tx, s.logger)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
