package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/payment"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

type fakeOrderRepo struct {
	orders map[string]*domain.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	f.orders[order.ExternalReference] = order
	return nil
}

func (f *fakeOrderRepo) GetByReference(_ context.Context, ref string) (*domain.Order, error) {
	order, ok := f.orders[ref]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: ref}
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, ref string, paymentID string, paymentStatus string, status domain.OrderStatus, paidAt *time.Time) error {
	order := f.orders[ref]
	order.PaymentID = &paymentID
	order.PaymentStatus = paymentStatus
	order.Status = status
	if paidAt != nil {
		order.PaidAt = paidAt
	}
	return nil
}

func (f *fakeOrderRepo) UpdatePreferenceID(_ context.Context, _, _ string) error { return nil }

func (f *fakeOrderRepo) MarkNotified(_ context.Context, ref string) (bool, error) {
	order := f.orders[ref]
	if order.NotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	order.NotifiedAt = &now
	return true, nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, ref string) error {
	delete(f.orders, ref)
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, _, _ int) ([]*domain.Order, error) {
	return nil, nil
}

type fakeGateway struct {
	payments map[string]*payment.Payment
}

func (f *fakeGateway) CreatePreference(_ context.Context, _ *payment.PreferenceRequest) (*payment.Preference, error) {
	return &payment.Preference{ID: "pref-1", InitPoint: "https://pay.example/pref-1"}, nil
}

func (f *fakeGateway) CreatePayment(_ context.Context, _ *payment.PaymentRequest, _ string) (*payment.Payment, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeGateway) GetPayment(_ context.Context, paymentID string) (*payment.Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	return p, nil
}

type fakeMailer struct {
	attempts int
}

func (f *fakeMailer) SendOrderConfirmation(_ context.Context, _ *domain.Order) error {
	f.attempts++
	return nil
}

const testSecret = "test-webhook-secret"

func newWebhookRouter(repo *fakeOrderRepo, gw *fakeGateway, mail *fakeMailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	repos := &repository.Repositories{Order: repo}
	router.GET("/v1/webhooks/payments", HandleWebhookProbe())
	router.POST("/v1/webhooks/payments", HandleWebhook(repos, gw, mail, testSecret, zap.NewNop()))
	return router
}

func webhookFixture() (*fakeOrderRepo, *fakeGateway, *fakeMailer) {
	repo := &fakeOrderRepo{orders: map[string]*domain.Order{
		"ord-1": {
			ExternalReference: "ord-1",
			CustomerEmail:     "dana@example.com",
			Status:            domain.OrderStatusPending,
			Total:             1999,
			Currency:          "MXN",
		},
	}}
	gw := &fakeGateway{payments: map[string]*payment.Payment{
		"501": {ID: 501, Status: "approved", ExternalReference: "ord-1"},
	}}
	return repo, gw, &fakeMailer{}
}

func signedRequest(t *testing.T, paymentID string, secret string) *http.Request {
	t.Helper()
	body := fmt.Sprintf(`{"type":"payment","action":"payment.updated","data":{"id":"%s"}}`, paymentID)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-request-id", "req-1")

	ts := "1700000000"
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "id:%s;request-id:%s;ts:%s;", paymentID, "req-1", ts)
	req.Header.Set("x-signature", "ts="+ts+",v1="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestWebhookProbe(t *testing.T) {
	router := newWebhookRouter(webhookFixture())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/webhooks/payments", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookApprovedFlow(t *testing.T) {
	repo, gw, mail := webhookFixture()
	router := newWebhookRouter(repo, gw, mail)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "501", testSecret))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OrderStatusApproved, repo.orders["ord-1"].Status)
	assert.Equal(t, 1, mail.attempts)

	// redelivery: still 200, still approved, no second email
	w = httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "501", testSecret))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OrderStatusApproved, repo.orders["ord-1"].Status)
	assert.Equal(t, 1, mail.attempts)
}

func TestWebhookRejectedFlow(t *testing.T) {
	repo, gw, mail := webhookFixture()
	gw.payments["502"] = &payment.Payment{ID: 502, Status: "rejected", ExternalReference: "ord-1"}
	router := newWebhookRouter(repo, gw, mail)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "502", testSecret))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OrderStatusRejected, repo.orders["ord-1"].Status)
	assert.Zero(t, mail.attempts)
}

func TestWebhookTamperedSignature(t *testing.T) {
	repo, gw, mail := webhookFixture()
	router := newWebhookRouter(repo, gw, mail)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "501", "wrong-secret"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// order state untouched regardless of payload validity
	assert.Equal(t, domain.OrderStatusPending, repo.orders["ord-1"].Status)
	assert.Zero(t, mail.attempts)
}

func TestWebhookMissingSignature(t *testing.T) {
	repo, gw, mail := webhookFixture()
	router := newWebhookRouter(repo, gw, mail)

	req := signedRequest(t, "501", testSecret)
	req.Header.Del("x-signature")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.OrderStatusPending, repo.orders["ord-1"].Status)
}

func TestWebhookMalformedBody(t *testing.T) {
	router := newWebhookRouter(webhookFixture())

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payments", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookIgnoresOtherTypes(t *testing.T) {
	router := newWebhookRouter(webhookFixture())

	body := `{"type":"plan","action":"updated","data":{"id":"9"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookUnknownPayment(t *testing.T) {
	router := newWebhookRouter(webhookFixture())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "999", testSecret))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookUnknownOrderIsAcknowledged(t *testing.T) {
	repo, gw, mail := webhookFixture()
	gw.payments["503"] = &payment.Payment{ID: 503, Status: "approved", ExternalReference: "no-such-order"}
	router := newWebhookRouter(repo, gw, mail)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "503", testSecret))

	// the provider must not retry a callback we cannot act on
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, mail.attempts)
}
