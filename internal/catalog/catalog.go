package catalog

import (
	"github.com/urbanedge/storefront-api/internal/domain"
)

// Catalog is the static product and coupon reference data. It is never
// mutated at runtime.
type Catalog struct {
	products  []domain.Product
	byID      map[string]*domain.Product
	legacyIDs map[string]string
	coupons   map[string]domain.Coupon
}

// New returns the live catalog.
func New() *Catalog {
	c := &Catalog{
		products:  products,
		byID:      make(map[string]*domain.Product, len(products)),
		legacyIDs: legacyIDs,
		coupons:   coupons,
	}
	for i := range c.products {
		c.byID[c.products[i].ID] = &c.products[i]
	}
	return c
}

// Products returns all catalog entries.
func (c *Catalog) Products() []domain.Product {
	return c.products
}

// Resolve looks a product up by id, remapping legacy identifiers from
// earlier catalog revisions. The second return is false when the id
// (after remapping) no longer exists in the catalog.
func (c *Catalog) Resolve(productID string) (*domain.Product, bool) {
	if mapped, ok := c.legacyIDs[productID]; ok {
		productID = mapped
	}
	p, ok := c.byID[productID]
	return p, ok
}

// Stock returns the available stock for a product size, 0 if the size
// does not exist.
func (c *Catalog) Stock(productID, size string) int {
	p, ok := c.Resolve(productID)
	if !ok {
		return 0
	}
	return p.Sizes[size]
}

// Coupon resolves a coupon code. Only active coupons resolve.
func (c *Catalog) Coupon(code string) (domain.Coupon, bool) {
	coupon, ok := c.coupons[code]
	if !ok || !coupon.Active {
		return domain.Coupon{}, false
	}
	return coupon, true
}

// Coupons returns the coupon table keyed by code.
func (c *Catalog) Coupons() map[string]domain.Coupon {
	return c.coupons
}

var products = []domain.Product{
	{
		ID:        "ue-oversized-tee-black",
		Name:      "Oversized Tee Negra",
		Price:     999,
		BasePrice: 861.21,
		Sizes:     map[string]int{"S": 12, "M": 20, "L": 15, "XL": 8},
	},
	{
		ID:        "ue-oversized-tee-bone",
		Name:      "Oversized Tee Hueso",
		Price:     999,
		BasePrice: 861.21,
		Sizes:     map[string]int{"S": 10, "M": 18, "L": 12, "XL": 6},
	},
	{
		ID:        "ue-boxy-hoodie-black",
		Name:      "Boxy Hoodie Negra",
		Price:     1999,
		BasePrice: 1723.28,
		Sizes:     map[string]int{"S": 8, "M": 14, "L": 10, "XL": 5},
	},
	{
		ID:        "ue-boxy-hoodie-olive",
		Name:      "Boxy Hoodie Olivo",
		Price:     1999,
		BasePrice: 1723.28,
		Sizes:     map[string]int{"S": 6, "M": 12, "L": 9, "XL": 4},
	},
	{
		ID:        "ue-cargo-pant-black",
		Name:      "Cargo Pant Negro",
		Price:     1799,
		BasePrice: 1550.86,
		Sizes:     map[string]int{"28": 7, "30": 11, "32": 13, "34": 6},
	},
	{
		ID:        "ue-dad-cap-black",
		Name:      "Dad Cap Negra",
		Price:     599,
		BasePrice: 516.38,
		Sizes:     map[string]int{"UNI": 25},
	},
}

// legacyIDs remaps product identifiers from earlier catalog revisions
// to their current ids, so rehydrated carts survive a catalog rename.
var legacyIDs = map[string]string{
	"oversized-tee-black": "ue-oversized-tee-black",
	"oversized-tee-bone":  "ue-oversized-tee-bone",
	"hoodie-black":        "ue-boxy-hoodie-black",
	"hoodie-olive":        "ue-boxy-hoodie-olive",
	"cargo-black":         "ue-cargo-pant-black",
}

var coupons = map[string]domain.Coupon{
	"URBANEDGE20": {
		Code:            "URBANEDGE20",
		DiscountRate:    0.20,
		MinimumSubtotal: 0,
		Active:          true,
	},
	"LAUNCH10": {
		Code:            "LAUNCH10",
		DiscountRate:    0.10,
		MinimumSubtotal: 500,
		Active:          false,
	},
}
