package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/api/handlers"
	"github.com/urbanedge/storefront-api/internal/api/middleware"
	"github.com/urbanedge/storefront-api/internal/cart"
	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/config"
	"github.com/urbanedge/storefront-api/internal/mailer"
	"github.com/urbanedge/storefront-api/internal/pricing"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/internal/service"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Catalog   *catalog.Catalog
	Pricer    *pricing.Engine
	CartStore cart.Storage
	Repos     *repository.Repositories
	Gateway   service.Gateway
	Mailer    mailer.Mailer
}

// NewRouter creates and configures the Gin router
func NewRouter(deps Deps, logger *zap.Logger) *gin.Engine {
	if deps.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/products", handlers.HandleListProducts(deps.Catalog))

		cartRoutes := v1.Group("/cart/:id")
		{
			cartRoutes.GET("", handlers.HandleGetCart(deps.Catalog, deps.Pricer, deps.CartStore, logger))
			cartRoutes.DELETE("", handlers.HandleClearCart(deps.Catalog, deps.Pricer, deps.CartStore, logger))
			cartRoutes.POST("/items", handlers.HandleAddCartItem(deps.Catalog, deps.Pricer, deps.CartStore, logger))
			cartRoutes.PATCH("/items/:itemId", handlers.HandleUpdateCartItem(deps.Catalog, deps.Pricer, deps.CartStore, logger))
			cartRoutes.DELETE("/items/:itemId", handlers.HandleRemoveCartItem(deps.Catalog, deps.Pricer, deps.CartStore, logger))
			cartRoutes.POST("/coupon", handlers.HandleApplyCoupon(deps.Catalog, deps.Pricer, deps.CartStore, logger))
			cartRoutes.DELETE("/coupon", handlers.HandleRemoveCoupon(deps.Catalog, deps.Pricer, deps.CartStore, logger))
		}

		v1.POST("/checkout", handlers.HandleCheckout(deps.Config, deps.Catalog, deps.Pricer, deps.Repos, deps.Gateway, logger))
		v1.POST("/payments", handlers.HandleDirectPayment(deps.Repos, deps.Gateway, deps.Mailer, logger))
		v1.GET("/orders/:id", handlers.HandleGetOrder(deps.Repos, logger))

		v1.GET("/webhooks/payments", handlers.HandleWebhookProbe())
		v1.POST("/webhooks/payments", handlers.HandleWebhook(deps.Repos, deps.Gateway, deps.Mailer, deps.Config.Payment.WebhookSecret, logger))

		// Admin routes (internal)
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(deps.Config.API.AdminKeyHash, logger))
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(deps.Repos, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
