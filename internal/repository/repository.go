package repository

import (
	"context"
	"time"

	"github.com/urbanedge/storefront-api/internal/domain"
)

// OrderRepository is the persistence gateway for order aggregates,
// keyed by the merchant-generated external reference.
type OrderRepository interface {
	// Create persists the order header and its item snapshots in one
	// transaction.
	Create(ctx context.Context, order *domain.Order) error
	GetByReference(ctx context.Context, ref string) (*domain.Order, error)
	// UpdatePaymentStatus persists both the raw provider status and the
	// derived order status. Idempotent at the storage layer; callers
	// gate on genuine transitions.
	UpdatePaymentStatus(ctx context.Context, ref string, paymentID string, paymentStatus string, status domain.OrderStatus, paidAt *time.Time) error
	UpdatePreferenceID(ctx context.Context, ref string, preferenceID string) error
	// MarkNotified atomically claims the order's notification slot.
	// Returns true for exactly one caller per order.
	MarkNotified(ctx context.Context, ref string) (bool, error)
	// Delete removes items before the header; an absent order is
	// treated as success.
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context, limit, offset int) ([]*domain.Order, error)
}

// Repositories bundles all repositories for injection
type Repositories struct {
	Order OrderRepository
}
