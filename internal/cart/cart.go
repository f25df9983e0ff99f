package cart

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/pricing"
)

// Manager is a single-threaded reducer over one cart. Every mutation
// recomputes the derived monetary fields through the pricing engine and
// persists the snapshot; the cart never holds stale totals.
type Manager struct {
	id      string
	catalog *catalog.Catalog
	pricer  *pricing.Engine
	store   Storage
	logger  *zap.Logger
	cart    domain.Cart
}

func NewManager(id string, cat *catalog.Catalog, pricer *pricing.Engine, store Storage, logger *zap.Logger) *Manager {
	return &Manager{
		id:      id,
		catalog: cat,
		pricer:  pricer,
		store:   store,
		logger:  logger,
	}
}

// LineItemID builds the deterministic line id for a product selection,
// so identical selections collapse into one line.
func LineItemID(productID, size string) string {
	return fmt.Sprintf("%s-%s", productID, size)
}

// Cart returns the current cart state.
func (m *Manager) Cart() domain.Cart {
	return m.cart
}

// Load rehydrates the cart from storage, re-joining stored lines
// against the current catalog. Legacy product ids are remapped; lines
// whose product no longer exists are dropped silently.
func (m *Manager) Load() error {
	snap, err := m.store.Load(m.id)
	if err != nil {
		return err
	}

	m.cart = domain.Cart{}
	for _, si := range snap.Items {
		product, ok := m.catalog.Resolve(si.ProductID)
		if !ok {
			m.logger.Info("dropping cart line for removed product",
				zap.String("cart_id", m.id),
				zap.String("product_id", si.ProductID))
			continue
		}
		if si.Quantity < 1 {
			continue
		}
		m.cart.Items = append(m.cart.Items, domain.CartLineItem{
			ID:            LineItemID(product.ID, si.Size),
			ProductID:     product.ID,
			Size:          si.Size,
			Quantity:      si.Quantity,
			UnitPrice:     product.Price,
			BaseUnitPrice: product.BasePrice,
		})
	}
	if snap.CouponCode != "" {
		if _, ok := m.pricer.ResolveCoupon(snap.CouponCode); ok {
			m.cart.CouponCode = snap.CouponCode
		}
	}

	m.recompute()
	return nil
}

// AddItem validates the requested quantity against the size's stock and
// either appends a new line or merges into an existing one. A merge
// that would exceed stock is rejected outright, leaving state
// unchanged.
func (m *Manager) AddItem(productID, size string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	product, ok := m.catalog.Resolve(productID)
	if !ok {
		return fmt.Errorf("unknown product: %s", productID)
	}
	stock, hasSize := product.Sizes[size]
	if !hasSize {
		return fmt.Errorf("unknown size %q for product %s", size, product.ID)
	}

	lineID := LineItemID(product.ID, size)
	for i := range m.cart.Items {
		if m.cart.Items[i].ID == lineID {
			combined := m.cart.Items[i].Quantity + quantity
			if combined > stock {
				return fmt.Errorf("only %d in stock for %s size %s", stock, product.ID, size)
			}
			m.cart.Items[i].Quantity = combined
			return m.commit()
		}
	}

	if quantity > stock {
		return fmt.Errorf("only %d in stock for %s size %s", stock, product.ID, size)
	}

	m.cart.Items = append(m.cart.Items, domain.CartLineItem{
		ID:            lineID,
		ProductID:     product.ID,
		Size:          size,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		BaseUnitPrice: product.BasePrice,
	})
	return m.commit()
}

// RemoveItem removes a line by id. Removing an absent line is a no-op.
func (m *Manager) RemoveItem(itemID string) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ID == itemID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return m.commit()
		}
	}
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the
// line. A quantity above stock no-ops, keeping the last good state;
// the caller surfaces validation messages before dispatching.
func (m *Manager) UpdateQuantity(itemID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(itemID)
	}

	for i := range m.cart.Items {
		if m.cart.Items[i].ID != itemID {
			continue
		}
		stock := m.catalog.Stock(m.cart.Items[i].ProductID, m.cart.Items[i].Size)
		if quantity > stock {
			m.logger.Info("ignoring quantity update beyond stock",
				zap.String("cart_id", m.id),
				zap.String("item_id", itemID),
				zap.Int("requested", quantity),
				zap.Int("stock", stock))
			return nil
		}
		m.cart.Items[i].Quantity = quantity
		return m.commit()
	}
	return nil
}

// ApplyCoupon sets the coupon code if it resolves to an active coupon.
// Invalid codes leave the cart unchanged and return false.
func (m *Manager) ApplyCoupon(code string) (bool, error) {
	if _, ok := m.pricer.ResolveCoupon(code); !ok {
		return false, nil
	}
	m.cart.CouponCode = code
	return true, m.commit()
}

// RemoveCoupon unsets the coupon code.
func (m *Manager) RemoveCoupon() error {
	m.cart.CouponCode = ""
	return m.commit()
}

// Clear empties the cart and removes the persisted snapshot.
func (m *Manager) Clear() error {
	m.cart = domain.Cart{}
	m.recompute()
	return m.store.Clear(m.id)
}

func (m *Manager) commit() error {
	m.recompute()
	return m.persist()
}

func (m *Manager) recompute() {
	totals := m.pricer.Compute(m.cart.Items, m.cart.CouponCode)
	m.cart.Subtotal = totals.Subtotal
	m.cart.Discount = totals.Discount
	m.cart.Tax = totals.Tax
	m.cart.Shipping = totals.Shipping
	m.cart.Total = totals.Total

	count := 0
	for _, item := range m.cart.Items {
		count += item.Quantity
	}
	m.cart.ItemCount = count
	m.cart.UpdatedAt = time.Now()
}

func (m *Manager) persist() error {
	snap := &Snapshot{CouponCode: m.cart.CouponCode}
	for _, item := range m.cart.Items {
		snap.Items = append(snap.Items, SnapshotItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}
	return m.store.Save(m.id, snap)
}
