package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/mailer"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/internal/service"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

// WebhookPayload is the provider callback body. Only the payment id is
// trusted from it; the authoritative status is re-fetched.
type WebhookPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleWebhookProbe handles GET /v1/webhooks/payments. Providers probe
// the endpoint before accepting it.
func HandleWebhookProbe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HandleWebhook handles POST /v1/webhooks/payments
func HandleWebhook(repos *repository.Repositories, gateway service.Gateway, mail mailer.Mailer, webhookSecret string, logger *zap.Logger) gin.HandlerFunc {
	svc := service.NewReconcileService(repos, gateway, mail, webhookSecret, logger)

	return func(c *gin.Context) {
		var payload WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
			return
		}

		// unrecognized callback types are acknowledged and ignored
		if payload.Type != "payment" {
			logger.Info("Ignoring webhook of unhandled type",
				zap.String("type", payload.Type),
				zap.String("action", payload.Action))
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if payload.Data.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment id"})
			return
		}

		signature := c.GetHeader("x-signature")
		requestID := c.GetHeader("x-request-id")
		if err := svc.VerifySignature(signature, requestID, payload.Data.ID); err != nil {
			switch err.(type) {
			case *errors.ErrUnauthorized:
				logger.Warn("Rejected webhook with invalid signature",
					zap.String("payment_id", payload.Data.ID))
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing or malformed signature"})
			}
			return
		}

		if err := svc.ProcessNotification(c.Request.Context(), payload.Data.ID); err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
				return
			}
			logger.Error("Webhook processing failed",
				zap.String("payment_id", payload.Data.ID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "processed"})
	}
}
