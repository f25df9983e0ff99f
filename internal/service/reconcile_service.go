package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/mailer"
	"github.com/urbanedge/storefront-api/internal/repository"
	"github.com/urbanedge/storefront-api/pkg/errors"
)

type reconcileService struct {
	repos   *repository.Repositories
	gateway Gateway
	mail    mailer.Mailer
	secret  string
	logger  *zap.Logger
}

// NewReconcileService creates the webhook reconciliation service
func NewReconcileService(repos *repository.Repositories, gateway Gateway, mail mailer.Mailer, webhookSecret string, logger *zap.Logger) *reconcileService {
	return &reconcileService{
		repos:   repos,
		gateway: gateway,
		mail:    mail,
		secret:  webhookSecret,
		logger:  logger,
	}
}

// VerifySignature checks the callback's HMAC signature header. The
// header carries "ts=<timestamp>,v1=<hex digest>"; the digest covers
// "id:<resource-id>;request-id:<request-id>;ts:<timestamp>;" under the
// shared secret. An empty configured secret skips verification (dev
// opt-out). Returns ErrValidation for a missing or malformed header and
// ErrUnauthorized for a digest mismatch.
func (s *reconcileService) VerifySignature(signature, requestID, resourceID string) error {
	if s.secret == "" {
		return nil
	}
	if signature == "" {
		return &errors.ErrValidation{Messages: []string{"missing signature header"}}
	}

	var ts, digest string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			digest = value
		}
	}
	if ts == "" || digest == "" {
		return &errors.ErrValidation{Messages: []string{"malformed signature header"}}
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resourceID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return &errors.ErrUnauthorized{Message: "signature mismatch"}
	}
	return nil
}

// ProcessNotification reconciles one payment callback. The callback
// only proves that something changed; the authoritative status is
// always re-fetched from the provider. Callbacks that cannot be acted
// on (no external reference, unknown order, backward transition) are
// logged and dropped without error so the provider does not retry.
func (s *reconcileService) ProcessNotification(ctx context.Context, resourceID string) error {
	p, err := s.gateway.GetPayment(ctx, resourceID)
	if err != nil {
		return err
	}

	if p.ExternalReference == "" {
		s.logger.Warn("Payment has no external reference, ignoring",
			zap.String("payment_id", resourceID))
		return nil
	}

	order, err := s.repos.Order.GetByReference(ctx, p.ExternalReference)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			s.logger.Warn("No order for payment external reference, ignoring",
				zap.String("payment_id", resourceID),
				zap.String("external_reference", p.ExternalReference))
			return nil
		}
		return err
	}

	next := domain.MapPaymentStatus(p.Status)
	if !order.Status.CanTransitionTo(next) {
		skipped := &errors.ErrInvalidStateTransition{From: string(order.Status), To: string(next)}
		s.logger.Info("Skipping backward order status transition",
			zap.String("order_ref", order.ExternalReference),
			zap.String("reason", skipped.Error()),
			zap.String("payment_status", p.Status))
		return nil
	}

	var paidAt *time.Time
	if next == domain.OrderStatusApproved {
		now := time.Now()
		paidAt = &now
	}

	paymentID := strconv.FormatInt(p.ID, 10)
	if err := s.repos.Order.UpdatePaymentStatus(ctx, order.ExternalReference, paymentID, p.Status, next, paidAt); err != nil {
		return err
	}

	s.logger.Info("Order reconciled from payment callback",
		zap.String("order_ref", order.ExternalReference),
		zap.String("payment_id", paymentID),
		zap.String("payment_status", p.Status),
		zap.String("order_status", string(next)))

	if next == domain.OrderStatusApproved {
		order.Status = next
		order.PaymentStatus = p.Status
		notifyApproved(ctx, s.repos, s.mail, order, s.logger)
	}

	return nil
}
