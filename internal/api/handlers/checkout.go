package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/config"
	"github.com/urbanedge/storefront-api/internal/pricing"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/internal/service"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

// CheckoutResponse represents the checkout response
type CheckoutResponse struct {
	Success      bool           `json:"success"`
	Order        *OrderResponse `json:"order,omitempty"`
	PreferenceID string         `json:"preference_id,omitempty"`
	RedirectURL  string         `json:"redirect_url,omitempty"`
}

// HandleCheckout handles POST /v1/checkout
func HandleCheckout(cfg *config.Config, cat *catalog.Catalog, pricer *pricing.Engine, repos *repository.Repositories, gateway service.Gateway, logger *zap.Logger) gin.HandlerFunc {
	svc := service.NewCheckoutService(cfg, cat, pricer, repos, gateway, logger)

	return func(c *gin.Context) {
		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid request body",
				"message": err.Error(),
			})
			return
		}

		result, err := svc.Checkout(c.Request.Context(), &req)
		if err != nil {
			if validation, ok := err.(*errors.ErrValidation); ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"success":  false,
					"error":    "validation failed",
					"messages": validation.Messages,
				})
				return
			}
			if _, ok := err.(*errors.ErrGateway); ok {
				c.JSON(http.StatusBadGateway, gin.H{
					"success": false,
					"error":   "payment gateway error",
					"message": "No pudimos iniciar el pago, intenta de nuevo",
				})
				return
			}
			logger.Error("Checkout failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "internal error",
			})
			return
		}

		c.JSON(http.StatusOK, CheckoutResponse{
			Success:      true,
			Order:        orderResponse(result.Order),
			PreferenceID: result.PreferenceID,
			RedirectURL:  result.RedirectURL,
		})
	}
}
