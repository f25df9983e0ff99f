package service

import (
	"context"
	"fmt"
	"math"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/config"
	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/payment"
	"github.com/urbanedge/storefront-api/internal/pricing"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

// preferenceWindow is how long a hosted checkout session stays payable.
const preferenceWindow = 30 * time.Minute

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type checkoutService struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	pricer   *pricing.Engine
	repos    *repository.Repositories
	gateway  Gateway
	validate *validatorv10.Validate
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(cfg *config.Config, cat *catalog.Catalog, pricer *pricing.Engine, repos *repository.Repositories, gateway Gateway, logger *zap.Logger) *checkoutService {
	return &checkoutService{
		cfg:      cfg,
		catalog:  cat,
		pricer:   pricer,
		repos:    repos,
		gateway:  gateway,
		validate: validatorv10.New(),
		logger:   logger,
	}
}

// Validate enumerates every problem with a checkout submission as a
// distinct human-readable message. No partial order is created while
// any message remains.
func (s *checkoutService) Validate(req *CheckoutRequest) []string {
	var msgs []string

	if len(req.Items) == 0 {
		msgs = append(msgs, "cart is empty")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			msgs = append(msgs, fmt.Sprintf("quantity for product %s must be at least 1", item.ProductID))
			continue
		}
		product, ok := s.catalog.Resolve(item.ProductID)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("unknown product: %s", item.ProductID))
			continue
		}
		stock, hasSize := product.Sizes[item.Size]
		if !hasSize {
			msgs = append(msgs, fmt.Sprintf("unknown size %s for product %s", item.Size, product.ID))
			continue
		}
		if item.Quantity > stock {
			msgs = append(msgs, fmt.Sprintf("only %d in stock for %s size %s", stock, product.ID, item.Size))
		}
	}

	if req.Customer.Name == "" {
		msgs = append(msgs, "customer name is required")
	}
	if req.Customer.Email == "" {
		msgs = append(msgs, "customer email is required")
	} else if err := s.validate.Var(req.Customer.Email, "email"); err != nil {
		msgs = append(msgs, "customer email is invalid")
	}
	if req.Customer.Phone == "" {
		msgs = append(msgs, "customer phone is required")
	}

	if req.Shipping.Street == "" {
		msgs = append(msgs, "shipping street is required")
	}
	if req.Shipping.City == "" {
		msgs = append(msgs, "shipping city is required")
	}
	if req.Shipping.PostalCode == "" {
		msgs = append(msgs, "shipping postal code is required")
	}
	if req.Shipping.Country == "" {
		msgs = append(msgs, "shipping country is required")
	}

	return msgs
}

// Checkout creates a pending order from the submission and opens a
// hosted payment session for it.
func (s *checkoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	if msgs := s.Validate(req); len(msgs) > 0 {
		return nil, &errors.ErrValidation{Messages: msgs}
	}

	// snapshot catalog prices at checkout time; client-sent prices are
	// never trusted
	lines := make([]domain.CartLineItem, 0, len(req.Items))
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		product, _ := s.catalog.Resolve(in.ProductID)
		lines = append(lines, domain.CartLineItem{
			ID:            fmt.Sprintf("%s-%s", product.ID, in.Size),
			ProductID:     product.ID,
			Size:          in.Size,
			Quantity:      in.Quantity,
			UnitPrice:     product.Price,
			BaseUnitPrice: product.BasePrice,
		})
		items = append(items, domain.OrderItem{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Size:          in.Size,
			UnitPrice:     product.Price,
			BaseUnitPrice: product.BasePrice,
			Quantity:      in.Quantity,
		})
	}

	couponCode := req.CouponCode
	if couponCode != "" {
		if _, ok := s.pricer.ResolveCoupon(couponCode); !ok {
			couponCode = ""
		}
	}
	totals := s.pricer.Compute(lines, couponCode)

	order := &domain.Order{
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
		ShippingAddress: domain.Address{
			Street:     req.Shipping.Street,
			City:       req.Shipping.City,
			State:      req.Shipping.State,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Tax:      totals.Tax,
		Shipping: totals.Shipping,
		Total:    totals.Total,
		Currency: s.cfg.Store.Currency,
		Status:   domain.OrderStatusPending,
		Items:    items,
	}
	if req.Billing != nil {
		order.BillingAddress = &domain.Address{
			Street:     req.Billing.Street,
			City:       req.Billing.City,
			State:      req.Billing.State,
			PostalCode: req.Billing.PostalCode,
			Country:    req.Billing.Country,
		}
	}

	if err := s.repos.Order.Create(ctx, order); err != nil {
		return nil, err
	}

	pref, err := s.gateway.CreatePreference(ctx, s.buildPreference(order))
	if err != nil {
		// the pending order survives; payment initiation can be retried
		s.logger.Error("Failed to create payment preference",
			zap.String("order_ref", order.ExternalReference),
			zap.Error(err))
		return nil, err
	}

	if err := s.repos.Order.UpdatePreferenceID(ctx, order.ExternalReference, pref.ID); err != nil {
		s.logger.Warn("Failed to store preference ID on order",
			zap.String("order_ref", order.ExternalReference),
			zap.Error(err))
	}
	order.PreferenceID = &pref.ID

	return &CheckoutResult{
		Order:        order,
		PreferenceID: pref.ID,
		RedirectURL:  pref.InitPoint,
	}, nil
}

// buildPreference maps an order into a hosted checkout session request.
// Shipping and any discount adjustment ride along as pseudo-line-items
// so the provider-displayed total matches the order total exactly.
func (s *checkoutService) buildPreference(order *domain.Order) *payment.PreferenceRequest {
	currency := order.Currency

	var listedSum float64
	prefItems := make([]payment.PreferenceItem, 0, len(order.Items)+2)
	for _, item := range order.Items {
		prefItems = append(prefItems, payment.PreferenceItem{
			Title:      fmt.Sprintf("%s (talla %s)", item.ProductName, item.Size),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: currency,
		})
		listedSum += item.UnitPrice * float64(item.Quantity)
	}
	if order.Shipping > 0 {
		prefItems = append(prefItems, payment.PreferenceItem{
			Title:      "Envío estándar",
			Quantity:   1,
			UnitPrice:  order.Shipping,
			CurrencyID: currency,
		})
	}
	if adjustment := round2(order.Total - listedSum - order.Shipping); adjustment != 0 {
		prefItems = append(prefItems, payment.PreferenceItem{
			Title:      "Ajustes y descuentos",
			Quantity:   1,
			UnitPrice:  adjustment,
			CurrencyID: currency,
		})
	}

	ref := order.ExternalReference
	return &payment.PreferenceRequest{
		Items: prefItems,
		Payer: payment.PreferencePayer{
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.CustomerPhone,
		},
		BackURLs: payment.BackURLs{
			Success: fmt.Sprintf("%s/checkout/success?order=%s", s.cfg.PublicURL, ref),
			Failure: fmt.Sprintf("%s/checkout/failure?order=%s", s.cfg.PublicURL, ref),
			Pending: fmt.Sprintf("%s/checkout/pending?order=%s", s.cfg.PublicURL, ref),
		},
		AutoReturn:        "approved",
		ExternalReference: ref,
		NotificationURL:   s.cfg.PublicURL + "/v1/webhooks/payments",
		Expires:           true,
		ExpirationDateTo:  time.Now().Add(preferenceWindow),
	}
}
