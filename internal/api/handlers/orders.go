package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

// OrderResponse represents the order projection
type OrderResponse struct {
	ID                string              `json:"id"`
	ExternalReference string              `json:"external_reference"`
	Status            domain.OrderStatus  `json:"status"`
	PaymentStatus     string              `json:"payment_status,omitempty"`
	PaymentID         *string             `json:"payment_id,omitempty"`
	PreferenceID      *string             `json:"preference_id,omitempty"`
	CustomerName      string              `json:"customer_name"`
	CustomerEmail     string              `json:"customer_email"`
	CustomerPhone     string              `json:"customer_phone,omitempty"`
	ShippingAddress   domain.Address      `json:"shipping_address"`
	BillingAddress    *domain.Address     `json:"billing_address,omitempty"`
	Subtotal          float64             `json:"subtotal"`
	Discount          float64             `json:"discount"`
	Tax               float64             `json:"tax"`
	Shipping          float64             `json:"shipping"`
	Total             float64             `json:"total"`
	Currency          string              `json:"currency"`
	Items             []OrderItemResponse `json:"items"`
	PaidAt            *string             `json:"paid_at,omitempty"`
	CreatedAt         string              `json:"created_at"`
	UpdatedAt         string              `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

func orderResponse(order *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		}
	}

	resp := &OrderResponse{
		ID:                order.ID.String(),
		ExternalReference: order.ExternalReference,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		PaymentID:         order.PaymentID,
		PreferenceID:      order.PreferenceID,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		CustomerPhone:     order.CustomerPhone,
		ShippingAddress:   order.ShippingAddress,
		BillingAddress:    order.BillingAddress,
		Subtotal:          order.Subtotal,
		Discount:          order.Discount,
		Tax:               order.Tax,
		Shipping:          order.Shipping,
		Total:             order.Total,
		Currency:          order.Currency,
		Items:             items,
		CreatedAt:         order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         order.UpdatedAt.Format(time.RFC3339),
	}
	if order.PaidAt != nil {
		paidAt := order.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := repos.Order.GetByReference(c.Request.Context(), c.Param("id"))
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to get order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, orderResponse(order))
	}
}

// HandleListOrders handles GET /v1/admin/orders
func HandleListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		orders, err := repos.Order.List(c.Request.Context(), limit, offset)
		if err != nil {
			logger.Error("Failed to list orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		out := make([]*OrderResponse, len(orders))
		for i, order := range orders {
			out[i] = orderResponse(order)
		}
		c.JSON(http.StatusOK, gin.H{"orders": out})
	}
}
