package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/mailer"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/internal/service"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

// DirectPaymentResponse represents the direct payment response
type DirectPaymentResponse struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// HandleDirectPayment handles POST /v1/payments
func HandleDirectPayment(repos *repository.Repositories, gateway service.Gateway, mail mailer.Mailer, logger *zap.Logger) gin.HandlerFunc {
	svc := service.NewPaymentService(repos, gateway, mail, logger)

	return func(c *gin.Context) {
		var req service.DirectPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid request body",
				"message": err.Error(),
			})
			return
		}

		result, err := svc.ProcessPayment(c.Request.Context(), &req)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
				return
			}
			if _, ok := err.(*errors.ErrGateway); ok {
				c.JSON(http.StatusBadGateway, gin.H{
					"success": false,
					"error":   "payment gateway error",
					"message": "No pudimos procesar el pago, intenta de nuevo",
				})
				return
			}
			logger.Error("Direct payment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, DirectPaymentResponse{
			Success:   domain.MapPaymentStatus(result.Status) != domain.OrderStatusRejected,
			OrderID:   result.OrderID,
			PaymentID: result.PaymentID,
			Status:    result.Status,
			Message:   result.Message,
		})
	}
}
