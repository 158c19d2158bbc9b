package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/config"
	"mini-commerce/internal/db"
	"mini-commerce/internal/events"
	"mini-commerce/internal/httpserver"
	"mini-commerce/internal/logging"
	"mini-commerce/internal/metrics"
	"mini-commerce/internal/migrate"
	"mini-commerce/internal/ratelimit"
	"mini-commerce/internal/repository/memory"
	"mini-commerce/internal/repository/uow"
	authsvc "mini-commerce/internal/service/auth"
	cartsvc "mini-commerce/internal/service/cart"
	ordersvc "mini-commerce/internal/service/order"
	productsvc "mini-commerce/internal/service/product"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, "api")

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		if err != nil {
			logger.WithError(err).Fatal("connect kafka")
		}
		defer kp.Close()
		publisher = kp
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
	}

	repos := store.Repos()
	authService := authsvc.New(repos.Users, authsvc.Options{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.JWTTTL,
		AdminSignupKey: cfg.AdminSignupKey,
	}, logger)
	orderService := ordersvc.New(store, logger,
		ordersvc.WithPublisher(publisher),
		ordersvc.WithMetrics(metrics.NewOrderMetrics(registry)),
	)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Health:     store,
		AuthSvc:    authService,
		ProductSvc: productsvc.New(repos.Products, logger),
		CartSvc:    cartsvc.New(store, logger),
		OrderSvc:   orderService,
	}, httpserver.Options{
		RequestTimeout:     cfg.RequestTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:        limiter,
		Registry:           registry,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}

func openStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (uow.Store, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.Apply(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return uow.NewPostgres(pool, logger), pool.Close, nil
	default:
		return nil, nil, errors.New("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}
}
