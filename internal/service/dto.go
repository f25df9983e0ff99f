package service

import (
	"context"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/payment"
)

// Gateway is the narrow payment-provider port the services depend on,
// so the payment flows can be tested against fakes.
type Gateway interface {
	CreatePreference(ctx context.Context, req *payment.PreferenceRequest) (*payment.Preference, error)
	CreatePayment(ctx context.Context, req *payment.PaymentRequest, idempotencyKey string) (*payment.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error)
}

// CheckoutRequest represents the checkout submission payload
type CheckoutRequest struct {
	Items      []CheckoutItem `json:"items"`
	Customer   CustomerInfo   `json:"customer"`
	Shipping   AddressInput   `json:"shipping"`
	Billing    *AddressInput  `json:"billing,omitempty"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AddressInput struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// CheckoutResult carries the created order plus the hosted payment
// session to redirect the customer to.
type CheckoutResult struct {
	Order        *domain.Order
	PreferenceID string
	RedirectURL  string
}

// DirectPaymentRequest represents a client-tokenized payment submission
type DirectPaymentRequest struct {
	ExternalReference string `json:"external_reference" binding:"required"`
	Token             string `json:"token" binding:"required"`
	PaymentMethodID   string `json:"payment_method_id" binding:"required"`
	Installments      int    `json:"installments"`
	PayerEmail        string `json:"payer_email"`
}

// DirectPaymentResult is the synchronous outcome of a direct payment.
type DirectPaymentResult struct {
	OrderID   string
	PaymentID string
	Status    string
	Message   string
	// OrderDeleted reports that a synchronous rejection reclaimed the
	// pending order reservation.
	OrderDeleted bool
}
