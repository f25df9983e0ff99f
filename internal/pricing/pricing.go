package pricing

import (
	"math"

	"github.com/urbanedge/storefront-api/internal/domain"
)

// Totals is the derived monetary breakdown of a cart.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Engine computes cart totals. It is a pure function of its inputs;
// callers are expected to reject negative quantities before calling in.
type Engine struct {
	taxRate               float64
	freeShippingThreshold float64
	shippingRate          float64
	coupons               map[string]domain.Coupon
}

func NewEngine(taxRate, freeShippingThreshold, shippingRate float64, coupons map[string]domain.Coupon) *Engine {
	return &Engine{
		taxRate:               taxRate,
		freeShippingThreshold: freeShippingThreshold,
		shippingRate:          shippingRate,
		coupons:               coupons,
	}
}

// ResolveCoupon returns the coupon for code if it exists and is active.
func (e *Engine) ResolveCoupon(code string) (domain.Coupon, bool) {
	c, ok := e.coupons[code]
	if !ok || !c.Active {
		return domain.Coupon{}, false
	}
	return c, true
}

// Compute derives subtotal, discount, tax, shipping and total for the
// given line items and optional coupon code.
//
// The subtotal uses each line's tax-exclusive base price when the
// catalog provides one, falling back to the listed tax-inclusive price.
// When every line carries a base price and no coupon applies, tax is
// derived so the advertised tax-inclusive total is preserved to the
// cent (exact-total mode); otherwise tax is the configured rate over
// the discounted subtotal (rate mode). Each monetary field is rounded
// to 2 decimals independently.
func (e *Engine) Compute(items []domain.CartLineItem, couponCode string) Totals {
	if len(items) == 0 {
		return Totals{}
	}

	var subtotal, listedTotal float64
	allBasePriced := true
	for _, item := range items {
		qty := float64(item.Quantity)
		listedTotal += item.UnitPrice * qty
		if item.BaseUnitPrice > 0 {
			subtotal += item.BaseUnitPrice * qty
		} else {
			subtotal += item.UnitPrice * qty
			allBasePriced = false
		}
	}
	subtotal = round2(subtotal)

	var discount float64
	couponApplied := false
	if couponCode != "" {
		if coupon, ok := e.ResolveCoupon(couponCode); ok && coupon.MinimumSubtotal <= subtotal {
			discount = round2(subtotal * coupon.DiscountRate)
			couponApplied = true
		}
	}

	var shipping float64
	if subtotal-discount < e.freeShippingThreshold {
		shipping = round2(e.shippingRate)
	}

	var tax float64
	if allBasePriced && !couponApplied {
		// exact-total mode: preserve the advertised tax-inclusive total
		tax = round2(listedTotal - (subtotal - discount))
	} else {
		tax = round2((subtotal - discount) * e.taxRate)
	}

	total := round2(subtotal - discount + tax + shipping)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
