package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Price is the advertised tax-inclusive
// price; BasePrice is the tax-exclusive base when the catalog carries
// one (0 means unknown).
type Product struct {
	ID        string
	Name      string
	Price     float64
	BasePrice float64
	Sizes     map[string]int // size -> available stock
}

// Coupon is static, read-only reference data.
type Coupon struct {
	Code            string
	DiscountRate    float64
	MinimumSubtotal float64
	Active          bool
}

// CartLineItem is one cart line. ID is deterministic from
// (ProductID, Size) so identical selections collapse into one line.
type CartLineItem struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	Size          string  `json:"size"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	BaseUnitPrice float64 `json:"base_unit_price,omitempty"`
}

// Cart holds the line items plus derived monetary fields. The derived
// fields are always recomputed together from Items and CouponCode.
type Cart struct {
	Items      []CartLineItem `json:"items"`
	CouponCode string         `json:"coupon_code,omitempty"`
	ItemCount  int            `json:"item_count"`
	Subtotal   float64        `json:"subtotal"`
	Discount   float64        `json:"discount"`
	Tax        float64        `json:"tax"`
	Shipping   float64        `json:"shipping"`
	Total      float64        `json:"total"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Address is a shipping or billing address.
type Address struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Order is the persisted order aggregate. Items are denormalized
// snapshots taken at checkout time; later catalog edits never alter a
// historical order.
type Order struct {
	ID                uuid.UUID
	ExternalReference string
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	ShippingAddress   Address
	BillingAddress    *Address
	Subtotal          float64
	Discount          float64
	Tax               float64
	Shipping          float64
	Total             float64
	Currency          string
	Status            OrderStatus
	PaymentStatus     string
	PaymentID         *string
	PreferenceID      *string
	NotifiedAt        *time.Time
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []OrderItem
}

// OrderItem is one snapshotted line of an order.
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ProductID     string
	ProductName   string
	Size          string
	UnitPrice     float64
	BaseUnitPrice float64
	Quantity      int
	CreatedAt     time.Time
}

// PaymentNotification is the normalized form of one inbound provider
// callback. It exists only for the duration of webhook processing and
// is never persisted.
type PaymentNotification struct {
	OrderRef      string
	PaymentID     string
	Status        string
	PaymentMethod string
	Amount        float64
	Currency      string
	ReceivedAt    time.Time
}
