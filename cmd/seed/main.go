package main

import (
	"context"

	"github.com/joho/godotenv"

	"mini-commerce/internal/config"
	"mini-commerce/internal/db"
	"mini-commerce/internal/logging"
	"mini-commerce/internal/migrate"
	"mini-commerce/internal/repository/uow"
	"mini-commerce/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	admin := seed.Admin{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword}
	if err := seed.Apply(ctx, uow.NewPostgres(pool, logger), admin, logger); err != nil {
		logger.WithError(err).Fatal("seed apply")
	}
	logger.Info("seed applied")
}
