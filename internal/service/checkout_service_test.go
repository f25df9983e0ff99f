package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/config"
	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/pricing"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

func newCheckoutService(repo repository.OrderRepository, gw Gateway) *checkoutService {
	cfg := &config.Config{
		PublicURL: "https://shop.urbanedge.mx",
		Store: config.StoreConfig{
			Currency:              "MXN",
			TaxRate:               0.16,
			FreeShippingThreshold: 1500,
			ShippingRate:          99,
		},
	}
	cat := catalog.New()
	pricer := pricing.NewEngine(cfg.Store.TaxRate, cfg.Store.FreeShippingThreshold, cfg.Store.ShippingRate, cat.Coupons())
	return NewCheckoutService(cfg, cat, pricer, testRepos(repo), gw, zap.NewNop())
}

func validCheckout() *CheckoutRequest {
	return &CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: "ue-boxy-hoodie-black", Size: "M", Quantity: 1},
		},
		Customer: CustomerInfo{
			Name:  "Dana Cliente",
			Email: "dana@example.com",
			Phone: "+52 55 1234 5678",
		},
		Shipping: AddressInput{
			Street:     "Av. Insurgentes Sur 1000",
			City:       "Ciudad de México",
			PostalCode: "03100",
			Country:    "MX",
		},
	}
}

func TestCheckoutCreatesPendingOrderAndPreference(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	svc := newCheckoutService(repo, gw)

	result, err := svc.Checkout(context.Background(), validCheckout())
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "MXN", order.Currency)
	assert.Equal(t, 1723.28, order.Subtotal)
	assert.Equal(t, 1999.0, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Boxy Hoodie Negra", order.Items[0].ProductName)
	assert.Equal(t, 1999.0, order.Items[0].UnitPrice)

	assert.Equal(t, "pref-1", result.PreferenceID)
	assert.Equal(t, "https://pay.example/pref-1", result.RedirectURL)

	// preference echoes the external reference and callback URLs
	pref := gw.lastPrefRequest
	require.NotNil(t, pref)
	assert.Equal(t, order.ExternalReference, pref.ExternalReference)
	assert.Contains(t, pref.BackURLs.Success, order.ExternalReference)
	assert.Contains(t, pref.NotificationURL, "/v1/webhooks/payments")
	assert.True(t, pref.Expires)
}

func TestCheckoutPreferenceTotalMatchesOrderTotal(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	svc := newCheckoutService(repo, gw)

	req := validCheckout()
	req.CouponCode = "URBANEDGE20"
	result, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	var prefTotal float64
	for _, item := range gw.lastPrefRequest.Items {
		prefTotal += item.UnitPrice * float64(item.Quantity)
	}
	assert.InDelta(t, result.Order.Total, prefTotal, 0.001)
	assert.Greater(t, result.Order.Discount, 0.0)
}

func TestCheckoutValidationMessages(t *testing.T) {
	svc := newCheckoutService(newMockOrderRepo(), newMockGateway())

	req := &CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: "no-such-product", Size: "M", Quantity: 1},
		},
		Customer: CustomerInfo{Email: "not-an-email"},
	}

	_, err := svc.Checkout(context.Background(), req)
	var validation *errors.ErrValidation
	require.ErrorAs(t, err, &validation)

	assert.Contains(t, validation.Messages, "unknown product: no-such-product")
	assert.Contains(t, validation.Messages, "customer name is required")
	assert.Contains(t, validation.Messages, "customer email is invalid")
	assert.Contains(t, validation.Messages, "customer phone is required")
	assert.Contains(t, validation.Messages, "shipping street is required")
	assert.Contains(t, validation.Messages, "shipping city is required")
	assert.Contains(t, validation.Messages, "shipping postal code is required")
	assert.Contains(t, validation.Messages, "shipping country is required")
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newCheckoutService(newMockOrderRepo(), newMockGateway())

	req := validCheckout()
	req.Items = nil
	_, err := svc.Checkout(context.Background(), req)

	var validation *errors.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Messages, "cart is empty")
}

func TestCheckoutStockExceeded(t *testing.T) {
	svc := newCheckoutService(newMockOrderRepo(), newMockGateway())

	req := validCheckout()
	req.Items[0].Quantity = 500
	_, err := svc.Checkout(context.Background(), req)

	var validation *errors.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Messages, "only 14 in stock for ue-boxy-hoodie-black size M")
}

func TestCheckoutInvalidCouponIsIgnored(t *testing.T) {
	repo := newMockOrderRepo()
	svc := newCheckoutService(repo, newMockGateway())

	req := validCheckout()
	req.CouponCode = "NOPE"
	result, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Order.Discount)
	assert.Equal(t, 1999.0, result.Order.Total)
}
