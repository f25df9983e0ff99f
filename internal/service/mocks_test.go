package service

import (
	"context"
	"time"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/payment"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

type mockOrderRepo struct {
	orders      map[string]*domain.Order
	createErr   error
	updateErr   error
	deleteCalls int
	updateCalls int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *domain.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	if order.ExternalReference == "" {
		order.ExternalReference = "ref-" + time.Now().Format("150405.000")
	}
	m.orders[order.ExternalReference] = order
	return nil
}

func (m *mockOrderRepo) GetByReference(_ context.Context, ref string) (*domain.Order, error) {
	order, ok := m.orders[ref]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: ref}
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, ref string, paymentID string, paymentStatus string, status domain.OrderStatus, paidAt *time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	order, ok := m.orders[ref]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: ref}
	}
	m.updateCalls++
	order.PaymentID = &paymentID
	order.PaymentStatus = paymentStatus
	order.Status = status
	if paidAt != nil {
		order.PaidAt = paidAt
	}
	order.UpdatedAt = time.Now()
	return nil
}

func (m *mockOrderRepo) UpdatePreferenceID(_ context.Context, ref string, preferenceID string) error {
	if order, ok := m.orders[ref]; ok {
		order.PreferenceID = &preferenceID
	}
	return nil
}

func (m *mockOrderRepo) MarkNotified(_ context.Context, ref string) (bool, error) {
	order, ok := m.orders[ref]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "order", ID: ref}
	}
	if order.NotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	order.NotifiedAt = &now
	return true, nil
}

func (m *mockOrderRepo) Delete(_ context.Context, ref string) error {
	m.deleteCalls++
	delete(m.orders, ref)
	return nil
}

func (m *mockOrderRepo) List(_ context.Context, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, order := range m.orders {
		out = append(out, order)
	}
	return out, nil
}

type mockGateway struct {
	payments        map[string]*payment.Payment
	createPayment   *payment.Payment
	createErr       error
	preference      *payment.Preference
	preferenceErr   error
	lastPrefRequest *payment.PreferenceRequest
	idempotencyKeys []string
}

func newMockGateway() *mockGateway {
	return &mockGateway{payments: make(map[string]*payment.Payment)}
}

func (g *mockGateway) CreatePreference(_ context.Context, req *payment.PreferenceRequest) (*payment.Preference, error) {
	g.lastPrefRequest = req
	if g.preferenceErr != nil {
		return nil, g.preferenceErr
	}
	if g.preference != nil {
		return g.preference, nil
	}
	return &payment.Preference{ID: "pref-1", InitPoint: "https://pay.example/pref-1"}, nil
}

func (g *mockGateway) CreatePayment(_ context.Context, _ *payment.PaymentRequest, idempotencyKey string) (*payment.Payment, error) {
	g.idempotencyKeys = append(g.idempotencyKeys, idempotencyKey)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createPayment, nil
}

func (g *mockGateway) GetPayment(_ context.Context, paymentID string) (*payment.Payment, error) {
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	return p, nil
}

type mockMailer struct {
	attempts int
	sent     []string
	sendErr  error
}

func (m *mockMailer) SendOrderConfirmation(_ context.Context, order *domain.Order) error {
	m.attempts++
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, order.ExternalReference)
	return nil
}

func testRepos(repo repository.OrderRepository) *repository.Repositories {
	return &repository.Repositories{Order: repo}
}
