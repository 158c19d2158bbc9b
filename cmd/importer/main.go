package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/config"
	"mini-commerce/internal/db"
	"mini-commerce/internal/importer"
	"mini-commerce/internal/logging"
	productrepo "mini-commerce/internal/repository/product"
	productsvc "mini-commerce/internal/service/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV (title,description,price_cents,stock,category)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, "importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.WithError(err).Fatal("open file")
	}
	defer f.Close()

	products := productsvc.New(productrepo.NewPostgres(pool, logger), logger)
	imp := importer.NewCSVImporter(f, products, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.WithError(err).WithField("imported", count).Fatal("import failed")
	}

	logger.WithFields(logrus.Fields{
		"imported": count,
		"elapsed":  time.Since(start).Truncate(time.Millisecond).String(),
	}).Info("import finished")
}
