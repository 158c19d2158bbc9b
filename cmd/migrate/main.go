package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"mini-commerce/internal/config"
	"mini-commerce/internal/db"
	"mini-commerce/internal/logging"
	"mini-commerce/internal/migrate"
)

func main() {
	var down int
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if down > 0 {
		if err := migrate.Rollback(ctx, pool, down, logger); err != nil {
			logger.WithError(err).Fatal("roll back migrations")
		}
		logger.WithField("steps", down).Info("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}
	logger.Info("migrations applied")
}
