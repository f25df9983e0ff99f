package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/cart"
	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/pricing"
)

// AddCartItemRequest represents the add-to-cart payload
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents the quantity update payload.
// Removal goes through the delete endpoint, not a zero quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ApplyCouponRequest represents the coupon payload
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// loadCart rehydrates the manager for a cart id. One manager per
// request; carts are single logical sessions, no locking.
func loadCart(c *gin.Context, cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) (*cart.Manager, bool) {
	mgr := cart.NewManager(c.Param("id"), cat, pricer, store, logger)
	if err := mgr.Load(); err != nil {
		logger.Error("Failed to load cart", zap.String("cart_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return mgr, true
}

// HandleGetCart handles GET /v1/cart/:id
func HandleGetCart(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}

// HandleAddCartItem handles POST /v1/cart/:id/items
func HandleAddCartItem(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}

		if err := mgr.AddItem(req.ProductID, req.Size, req.Quantity); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}

// HandleUpdateCartItem handles PATCH /v1/cart/:id/items/:itemId
func HandleUpdateCartItem(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}

		if err := mgr.UpdateQuantity(c.Param("itemId"), req.Quantity); err != nil {
			logger.Error("Failed to update cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/:id/items/:itemId
func HandleRemoveCartItem(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}

		if err := mgr.RemoveItem(c.Param("itemId")); err != nil {
			logger.Error("Failed to remove cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}

// HandleApplyCoupon handles POST /v1/cart/:id/coupon
func HandleApplyCoupon(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ApplyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}

		applied, err := mgr.ApplyCoupon(req.Code)
		if err != nil {
			logger.Error("Failed to apply coupon", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !applied {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid coupon code"})
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}

// HandleRemoveCoupon handles DELETE /v1/cart/:id/coupon
func HandleRemoveCoupon(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}

		if err := mgr.RemoveCoupon(); err != nil {
			logger.Error("Failed to remove coupon", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}

// HandleClearCart handles DELETE /v1/cart/:id
func HandleClearCart(cat *catalog.Catalog, pricer *pricing.Engine, store cart.Storage, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr, ok := loadCart(c, cat, pricer, store, logger)
		if !ok {
			return
		}

		if err := mgr.Clear(); err != nil {
			logger.Error("Failed to clear cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, mgr.Cart())
	}
}
