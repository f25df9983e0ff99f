package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.ExternalReference == "" {
		order.ExternalReference = order.ID.String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	var billingJSON []byte
	if order.BillingAddress != nil {
		billingJSON, err = json.Marshal(order.BillingAddress)
		if err != nil {
			return fmt.Errorf("failed to marshal billing address: %w", err)
		}
	}

	// header and item snapshots commit together or not at all
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin order transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	headerQuery := `
		INSERT INTO orders (
			id, external_reference, customer_name, customer_email, customer_phone,
			shipping_address, billing_address, subtotal, discount, tax, shipping,
			total, currency, status, payment_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.ExecContext(ctx, headerQuery,
		order.ID,
		order.ExternalReference,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		shippingJSON,
		billingJSON,
		order.Subtotal,
		order.Discount,
		order.Tax,
		order.Shipping,
		order.Total,
		order.Currency,
		order.Status,
		order.PaymentStatus,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order header", zap.Error(err))
		return err
	}

	itemQuery := `
		INSERT INTO order_items (
			id, order_id, product_id, product_name, size, unit_price,
			base_unit_price, quantity, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}

		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Size,
			item.UnitPrice,
			item.BaseUnitPrice,
			item.Quantity,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert order item", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit order transaction", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderRepository) GetByReference(ctx context.Context, ref string) (*domain.Order, error) {
	query := `
		SELECT id, external_reference, customer_name, customer_email, customer_phone,
			shipping_address, billing_address, subtotal, discount, tax, shipping,
			total, currency, status, payment_status, payment_id, preference_id,
			notified_at, paid_at, created_at, updated_at
		FROM orders
		WHERE external_reference = $1
	`

	var order domain.Order
	var shippingJSON []byte
	var billingJSON []byte
	var paymentID, preferenceID sql.NullString
	var notifiedAt, paidAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, ref).Scan(
		&order.ID,
		&order.ExternalReference,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&shippingJSON,
		&billingJSON,
		&order.Subtotal,
		&order.Discount,
		&order.Tax,
		&order.Shipping,
		&order.Total,
		&order.Currency,
		&order.Status,
		&order.PaymentStatus,
		&paymentID,
		&preferenceID,
		&notifiedAt,
		&paidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: ref}
	}
	if err != nil {
		r.logger.Error("Failed to get order by reference", zap.Error(err))
		return nil, err
	}

	if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}
	if len(billingJSON) > 0 {
		var billing domain.Address
		if err := json.Unmarshal(billingJSON, &billing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal billing address: %w", err)
		}
		order.BillingAddress = &billing
	}
	if paymentID.Valid {
		order.PaymentID = &paymentID.String
	}
	if preferenceID.Valid {
		order.PreferenceID = &preferenceID.String
	}
	if notifiedAt.Valid {
		order.NotifiedAt = &notifiedAt.Time
	}
	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}

	items, err := r.itemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *orderRepository) itemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, size, unit_price,
			base_unit_price, quantity, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, product_id, size
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Size,
			&item.UnitPrice,
			&item.BaseUnitPrice,
			&item.Quantity,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, ref string, paymentID string, paymentStatus string, status domain.OrderStatus, paidAt *time.Time) error {
	query := `
		UPDATE orders
		SET payment_id = $2, payment_status = $3, status = $4,
			paid_at = COALESCE($5, paid_at), updated_at = $6
		WHERE external_reference = $1
	`

	result, err := r.db.ExecContext(ctx, query, ref, paymentID, paymentStatus, status, paidAt, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order payment status", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: ref}
	}

	return nil
}

func (r *orderRepository) UpdatePreferenceID(ctx context.Context, ref string, preferenceID string) error {
	query := `
		UPDATE orders
		SET preference_id = $2, updated_at = $3
		WHERE external_reference = $1
	`

	_, err := r.db.ExecContext(ctx, query, ref, preferenceID, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order preference ID", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderRepository) MarkNotified(ctx context.Context, ref string) (bool, error) {
	// check-and-set so concurrent redeliveries race for a single win
	query := `
		UPDATE orders
		SET notified_at = $2, updated_at = $2
		WHERE external_reference = $1 AND notified_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, ref, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark order notified", zap.Error(err))
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *orderRepository) Delete(ctx context.Context, ref string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// items before header, referential-integrity ordering
	_, err = tx.ExecContext(ctx, `
		DELETE FROM order_items
		WHERE order_id = (SELECT id FROM orders WHERE external_reference = $1)
	`, ref)
	if err != nil {
		r.logger.Error("Failed to delete order items", zap.Error(err))
		return err
	}

	// absent order counts as success, delete is idempotent
	_, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE external_reference = $1`, ref)
	if err != nil {
		r.logger.Error("Failed to delete order", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, external_reference, customer_name, customer_email,
			subtotal, discount, tax, shipping, total, currency,
			status, payment_status, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		err := rows.Scan(
			&order.ID,
			&order.ExternalReference,
			&order.CustomerName,
			&order.CustomerEmail,
			&order.Subtotal,
			&order.Discount,
			&order.Tax,
			&order.Shipping,
			&order.Total,
			&order.Currency,
			&order.Status,
			&order.PaymentStatus,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &order)
	}

	return orders, rows.Err()
}
