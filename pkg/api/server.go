package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
	"github.com/example/shopcore/pkg/payments"
)

// Roles carried in the JWT. Customers see only their own orders; staff and
// admin drive lifecycle transitions.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// OrderCache is the optional read-through cache for order lookups.
type OrderCache interface {
	CacheOrder(ctx context.Context, order *models.Order) error
	GetOrderCache(ctx context.Context, orderID string) (*models.Order, error)
}

// Server is the HTTP surface of the order core.
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	router    *gin.Engine
	checkout  *orders.CheckoutService
	lifecycle *orders.LifecycleService
	gateway   *payments.Gateway
	store     orders.Store
	cache     OrderCache
}

func NewServer(cfg *config.Config, logger *zap.Logger, checkout *orders.CheckoutService,
	lifecycle *orders.LifecycleService, gateway *payments.Gateway,
	store orders.Store, cache OrderCache) *Server {

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:    cfg,
		logger:    logger,
		router:    router,
		checkout:  checkout,
		lifecycle: lifecycle,
		gateway:   gateway,
		store:     store,
		cache:     cache,
	}
}

func (s *Server) SetupRoutes() {
	secret := s.config.Auth.JWTSecret

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/api/v1")
	{
		ordersGroup := v1.Group("/orders")
		ordersGroup.Use(authGuard(secret))
		{
			ordersGroup.POST("", s.placeOrder)
			ordersGroup.GET("/mine", s.myOrders)
			ordersGroup.GET("/:id", s.getOrder)
			ordersGroup.PUT("/:id/cancel", s.cancelOrder)
			ordersGroup.POST("/:id/payments", s.createPaymentAttempt)
			ordersGroup.POST("/:id/payments/poll", s.pollPayment)
		}

		staff := v1.Group("/orders")
		staff.Use(authGuard(secret, RoleStaff, RoleAdmin))
		{
			staff.PUT("/:id/status", s.updateStatus)
			staff.PUT("/:id/payment-status", s.updatePaymentStatus)
		}

		// Provider callbacks authenticate through signatures/API keys, not
		// bearer tokens.
		paymentsGroup := v1.Group("/payments")
		{
			paymentsGroup.GET("/:provider/return", s.providerReturn)
			paymentsGroup.POST("/:provider/notify", s.providerNotify)
		}
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("HTTP server starting", zap.String("address", addr))
	return s.router.Run(addr)
}
