package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/metrics"
	"mini-commerce/internal/ratelimit"
	authsvc "mini-commerce/internal/service/auth"
	cartsvc "mini-commerce/internal/service/cart"
	ordersvc "mini-commerce/internal/service/order"
	productsvc "mini-commerce/internal/service/product"
)

type authService interface {
	Register(ctx context.Context, in authsvc.RegisterInput, signupKey string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type productService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in productsvc.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, in cartsvc.AddItemInput) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID string, qty int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, userID string) (*domain.Order, error)
	ListMine(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error)
	Cancel(ctx context.Context, orderID string, actor domain.Actor) (*ordersvc.CancelResult, error)
	UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus, actor domain.Actor) (*domain.Order, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the services the router dispatches to.
type Deps struct {
	Health     pinger
	AuthSvc    authService
	ProductSvc productService
	CartSvc    cartService
	OrderSvc   orderService
}

// Options tune the ambient middleware. Zero values disable the feature.
type Options struct {
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
	// AuthLimiter throttles the login and register endpoints.
	AuthLimiter ratelimit.Limiter
	// Registry backs /metrics and the HTTP collectors.
	Registry *prometheus.Registry
}

type handlers struct {
	deps   Deps
	logger logrus.FieldLogger
}

// buildRouter wires routes for the API.
func buildRouter(logger logrus.FieldLogger, deps Deps, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(recovery(logger), requestLogger(logger))
	if opts.Registry != nil {
		router.Use(metrics.NewHTTPMetrics(opts.Registry).Middleware())
	}
	router.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))
	router.Use(requestTimeout(opts.RequestTimeout))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Health))
	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	h := &handlers{deps: deps, logger: logger}
	requireUser := protect(deps.AuthSvc, logger)
	adminOnly := authorize(domain.RoleAdmin)
	customerOnly := authorize(domain.RoleCustomer)

	api := router.Group("/api")

	auth := api.Group("/auth")
	if opts.AuthLimiter != nil {
		auth.Use(ratelimit.Middleware(opts.AuthLimiter, "auth", logger))
	}
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.GET("/me", requireUser, h.me)

	products := api.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/:id", h.getProduct)
	products.POST("", requireUser, adminOnly, h.createProduct)
	products.PUT("/:id", requireUser, adminOnly, h.updateProduct)
	products.PATCH("/:id", requireUser, adminOnly, h.updateProduct)
	products.DELETE("/:id", requireUser, adminOnly, h.deleteProduct)

	cart := api.Group("/cart", requireUser, customerOnly)
	cart.GET("", h.getCart)
	cart.POST("", h.addToCart)
	cart.PATCH("/:itemId", h.updateCartItem)
	cart.DELETE("/:itemId", h.removeCartItem)

	orders := api.Group("/orders", requireUser)
	orders.POST("", customerOnly, h.placeOrder)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id/cancel", h.cancelOrder)
	orders.PUT("/:id/status", adminOnly, h.updateOrderStatus)

	router.NoRoute(func(c *gin.Context) {
		respondFail(c, http.StatusNotFound, "Can't find "+c.Request.URL.Path+" on this server!")
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", adminSignupHeader},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
