package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/payment"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

func seedOrder(repo *mockOrderRepo, ref string, status domain.OrderStatus) *domain.Order {
	order := &domain.Order{
		ExternalReference: ref,
		CustomerName:      "Dana Cliente",
		CustomerEmail:     "dana@example.com",
		Total:             1999,
		Currency:          "MXN",
		Status:            status,
	}
	repo.orders[ref] = order
	return order
}

func seedPayment(gw *mockGateway, id int64, ref, status string) {
	gw.payments[fmt.Sprint(id)] = &payment.Payment{
		ID:                id,
		Status:            status,
		ExternalReference: ref,
		TransactionAmount: 1999,
	}
}

func TestProcessNotificationApproved(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	mail := &mockMailer{}
	seedOrder(repo, "ord-1", domain.OrderStatusPending)
	seedPayment(gw, 101, "ord-1", "approved")

	svc := NewReconcileService(testRepos(repo), gw, mail, "", zap.NewNop())
	require.NoError(t, svc.ProcessNotification(context.Background(), "101"))

	order := repo.orders["ord-1"]
	assert.Equal(t, domain.OrderStatusApproved, order.Status)
	assert.Equal(t, "approved", order.PaymentStatus)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "101", *order.PaymentID)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, 1, mail.attempts, "exactly one confirmation email attempted")
}

func TestProcessNotificationApprovedIsIdempotent(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	mail := &mockMailer{}
	seedOrder(repo, "ord-1", domain.OrderStatusPending)
	seedPayment(gw, 101, "ord-1", "approved")

	svc := NewReconcileService(testRepos(repo), gw, mail, "", zap.NewNop())
	require.NoError(t, svc.ProcessNotification(context.Background(), "101"))
	require.NoError(t, svc.ProcessNotification(context.Background(), "101"))

	assert.Equal(t, domain.OrderStatusApproved, repo.orders["ord-1"].Status)
	assert.Equal(t, 1, mail.attempts, "redelivery must not re-send the email")
}

func TestProcessNotificationRejectedSendsNoEmail(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	mail := &mockMailer{}
	seedOrder(repo, "ord-1", domain.OrderStatusPending)
	seedPayment(gw, 102, "ord-1", "rejected")

	svc := NewReconcileService(testRepos(repo), gw, mail, "", zap.NewNop())
	require.NoError(t, svc.ProcessNotification(context.Background(), "102"))

	// webhook rejection marks the order, it does not delete it
	order := repo.orders["ord-1"]
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusRejected, order.Status)
	assert.Zero(t, mail.attempts)
	assert.Zero(t, repo.deleteCalls)
}

func TestProcessNotificationStatusTable(t *testing.T) {
	cases := []struct {
		payment string
		want    domain.OrderStatus
	}{
		{"pending", domain.OrderStatusProcessing},
		{"in_process", domain.OrderStatusProcessing},
		{"authorized", domain.OrderStatusProcessing},
		{"in_mediation", domain.OrderStatusProcessing},
		{"cancelled", domain.OrderStatusRejected},
		{"refunded", domain.OrderStatusCancelled},
		{"charged_back", domain.OrderStatusCancelled},
	}

	for _, tc := range cases {
		repo := newMockOrderRepo()
		gw := newMockGateway()
		seedOrder(repo, "ord-1", domain.OrderStatusPending)
		seedPayment(gw, 103, "ord-1", tc.payment)

		svc := NewReconcileService(testRepos(repo), gw, &mockMailer{}, "", zap.NewNop())
		require.NoError(t, svc.ProcessNotification(context.Background(), "103"))
		assert.Equal(t, tc.want, repo.orders["ord-1"].Status, "payment status %q", tc.payment)
	}
}

func TestProcessNotificationUnknownStatusDefaultsToPending(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	seedOrder(repo, "ord-1", domain.OrderStatusPending)
	seedPayment(gw, 104, "ord-1", "some_future_status")

	svc := NewReconcileService(testRepos(repo), gw, &mockMailer{}, "", zap.NewNop())
	require.NoError(t, svc.ProcessNotification(context.Background(), "104"))
	assert.Equal(t, domain.OrderStatusPending, repo.orders["ord-1"].Status)
}

func TestProcessNotificationMonotonicGuard(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	mail := &mockMailer{}
	seedOrder(repo, "ord-1", domain.OrderStatusApproved)
	seedPayment(gw, 105, "ord-1", "pending")

	svc := NewReconcileService(testRepos(repo), gw, mail, "", zap.NewNop())
	require.NoError(t, svc.ProcessNotification(context.Background(), "105"))

	// a late "pending" callback must not demote the approved order
	assert.Equal(t, domain.OrderStatusApproved, repo.orders["ord-1"].Status)
	assert.Zero(t, repo.updateCalls)
}

func TestProcessNotificationUnresolvable(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	svc := NewReconcileService(testRepos(repo), gw, &mockMailer{}, "", zap.NewNop())

	// payment without external reference: acknowledged, no action
	gw.payments["201"] = &payment.Payment{ID: 201, Status: "approved"}
	require.NoError(t, svc.ProcessNotification(context.Background(), "201"))

	// payment referencing no local order: acknowledged, no action
	seedPayment(gw, 202, "no-such-order", "approved")
	require.NoError(t, svc.ProcessNotification(context.Background(), "202"))

	// unknown payment id propagates (handler answers 404)
	err := svc.ProcessNotification(context.Background(), "999")
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestProcessNotificationEmailFailureIsSwallowed(t *testing.T) {
	repo := newMockOrderRepo()
	gw := newMockGateway()
	mail := &mockMailer{sendErr: fmt.Errorf("smtp down")}
	seedOrder(repo, "ord-1", domain.OrderStatusPending)
	seedPayment(gw, 106, "ord-1", "approved")

	svc := NewReconcileService(testRepos(repo), gw, mail, "", zap.NewNop())
	require.NoError(t, svc.ProcessNotification(context.Background(), "106"))
	assert.Equal(t, domain.OrderStatusApproved, repo.orders["ord-1"].Status)
}

func signFor(secret, resourceID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "id:%s;request-id:%s;ts:%s;", resourceID, requestID, ts)
	return "ts=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := NewReconcileService(testRepos(newMockOrderRepo()), newMockGateway(), &mockMailer{}, "shhh", zap.NewNop())

	good := signFor("shhh", "101", "req-1", "1700000000")
	assert.NoError(t, svc.VerifySignature(good, "req-1", "101"))

	// missing header is a client error
	err := svc.VerifySignature("", "req-1", "101")
	var validation *errors.ErrValidation
	require.ErrorAs(t, err, &validation)

	// malformed header is a client error
	err = svc.VerifySignature("garbage", "req-1", "101")
	require.ErrorAs(t, err, &validation)

	// tampered digest is an auth error regardless of payload validity
	tampered := signFor("wrong-secret", "101", "req-1", "1700000000")
	err = svc.VerifySignature(tampered, "req-1", "101")
	var unauthorized *errors.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
}

func TestVerifySignatureSkippedWithoutSecret(t *testing.T) {
	svc := NewReconcileService(testRepos(newMockOrderRepo()), newMockGateway(), &mockMailer{}, "", zap.NewNop())
	assert.NoError(t, svc.VerifySignature("", "req-1", "101"))
}
