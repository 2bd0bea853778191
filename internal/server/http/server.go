// Package httpserver exposes the storefront over a JSON HTTP API.
package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/keymart/keymart/internal/cache"
	"github.com/keymart/keymart/internal/events"
	"github.com/keymart/keymart/internal/repository"
	"github.com/keymart/keymart/internal/service"
)

// Deps collects everything the HTTP layer needs.
type Deps struct {
	Auth     service.AuthService
	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService

	// Users and Orders back the admin listing/dashboard endpoints directly.
	Users  repository.UserRepository
	Orders repository.OrderRepository

	Cache  *cache.ProductCache // nil disables product caching
	Events events.Publisher

	SignKey []byte
	TaxRate float64 // applied to every payment-order total
	Logger  *zap.Logger
}

// Server holds handler dependencies.
type Server struct {
	auth     service.AuthService
	catalog  service.CatalogService
	cart     service.CartService
	checkout service.CheckoutService
	users    repository.UserRepository
	orders   repository.OrderRepository
	pcache   *cache.ProductCache
	events   events.Publisher
	signKey  []byte
	taxRate  float64
	logger   *zap.Logger
}

// New constructs the server.
func New(d Deps) *Server {
	ev := d.Events
	if ev == nil {
		ev = events.NopPublisher{}
	}
	return &Server{
		auth:     d.Auth,
		catalog:  d.Catalog,
		cart:     d.Cart,
		checkout: d.Checkout,
		users:    d.Users,
		orders:   d.Orders,
		pcache:   d.Cache,
		events:   ev,
		signKey:  d.SignKey,
		taxRate:  d.TaxRate,
		logger:   d.Logger,
	}
}

// invalidateProduct drops a cached product after a write touching it.
// Cache trouble is logged, never surfaced.
func (s *Server) invalidateProduct(ctx context.Context, id uuid.UUID) {
	if s.pcache == nil {
		return
	}
	if err := s.pcache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("product cache invalidate", zap.Error(err))
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), metricsMiddleware())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/products", s.handleListProducts)
	api.GET("/products/:id", s.handleGetProduct)
	api.GET("/products/:id/reviews", s.handleListReviews)

	authd := api.Group("", s.authRequired())
	authd.POST("/products/:id/reviews", s.handleSubmitReview)
	authd.GET("/cart", s.handleGetCart)
	authd.POST("/cart", s.handleAddToCart)
	authd.PUT("/cart/:productId", s.handleSetCartQuantity)
	authd.DELETE("/cart/:productId", s.handleRemoveFromCart)
	authd.POST("/cart/merge", s.handleMergeCart)
	authd.POST("/payments/create-order", s.handleCreatePaymentOrder)
	authd.POST("/payments/verify", s.handleVerifyPayment)
	authd.GET("/orders", s.handleListOrders)
	authd.GET("/purchases", s.handleListPurchases)
	authd.GET("/users/has-purchased/:productId", s.handleHasPurchased)

	adm := authd.Group("/admin", s.adminOnly())
	adm.POST("/products", s.handleCreateProduct)
	adm.PUT("/products/:id", s.handleUpdateProduct)
	adm.DELETE("/products/:id", s.handleDeleteProduct)
	adm.GET("/products/:id/keys", s.handleListKeys)
	adm.POST("/products/:id/keys", s.handleAddKeys)
	adm.DELETE("/products/:id/keys/:keyId", s.handleRemoveKey)
	adm.GET("/users", s.handleListUsers)
	adm.GET("/dashboard", s.handleDashboard)

	return r
}
