package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/domain"
	"github.com/urbanedge/storefront-api/internal/mailer"
	"github.com/urbanedge/storefront-api/internal/payment"
	"github.com/urbanedge/storefront-api/internal/repository"
)

// rejectionReasons maps the provider's common card rejection codes to
// customer-facing messages. Unlisted codes fall back to a generic one.
var rejectionReasons = map[string]string{
	"cc_rejected_insufficient_amount":      "Fondos insuficientes en la tarjeta",
	"cc_rejected_bad_filled_security_code": "Código de seguridad incorrecto",
	"cc_rejected_bad_filled_date":          "Fecha de vencimiento incorrecta",
	"cc_rejected_bad_filled_other":         "Revisa los datos de la tarjeta",
	"cc_rejected_call_for_authorize":       "Debes autorizar el pago con tu banco",
	"cc_rejected_card_disabled":            "La tarjeta está deshabilitada",
	"cc_rejected_high_risk":                "El pago fue rechazado por seguridad",
}

type paymentService struct {
	repos   *repository.Repositories
	gateway Gateway
	mail    mailer.Mailer
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repos *repository.Repositories, gateway Gateway, mail mailer.Mailer, logger *zap.Logger) *paymentService {
	return &paymentService{
		repos:   repos,
		gateway: gateway,
		mail:    mail,
		logger:  logger,
	}
}

// ProcessPayment submits a client-tokenized payment for an existing
// pending order and settles the order synchronously from the result.
// A synchronous rejection deletes the pending order outright: no
// reservation persists for a payment that never left the session.
func (s *paymentService) ProcessPayment(ctx context.Context, req *DirectPaymentRequest) (*DirectPaymentResult, error) {
	order, err := s.repos.Order.GetByReference(ctx, req.ExternalReference)
	if err != nil {
		return nil, err
	}

	// only pending orders accept a direct submission; a retry against an
	// order that already settled must not charge again or rewind it
	if order.Status != domain.OrderStatusPending {
		s.logger.Info("Ignoring direct payment for non-pending order",
			zap.String("order_ref", order.ExternalReference),
			zap.String("status", string(order.Status)))
		result := &DirectPaymentResult{
			OrderID: order.ExternalReference,
			Status:  order.PaymentStatus,
			Message: "El pedido ya fue procesado",
		}
		if order.PaymentID != nil {
			result.PaymentID = *order.PaymentID
		}
		return result, nil
	}

	payerEmail := req.PayerEmail
	if payerEmail == "" {
		payerEmail = order.CustomerEmail
	}

	installments := req.Installments
	if installments < 1 {
		installments = 1
	}

	// a fresh idempotency key per submission: client retries cannot
	// double-charge
	idempotencyKey := uuid.NewString()

	p, err := s.gateway.CreatePayment(ctx, &payment.PaymentRequest{
		Token:             req.Token,
		PaymentMethodID:   req.PaymentMethodID,
		Installments:      installments,
		TransactionAmount: order.Total,
		Description:       "Pedido " + order.ExternalReference,
		ExternalReference: order.ExternalReference,
		Payer:             payment.PreferencePayer{Email: payerEmail},
	}, idempotencyKey)
	if err != nil {
		return nil, err
	}

	paymentID := strconv.FormatInt(p.ID, 10)
	result := &DirectPaymentResult{
		OrderID:   order.ExternalReference,
		PaymentID: paymentID,
		Status:    p.Status,
	}

	switch domain.MapPaymentStatus(p.Status) {
	case domain.OrderStatusApproved:
		now := time.Now()
		if err := s.repos.Order.UpdatePaymentStatus(ctx, order.ExternalReference, paymentID, p.Status, domain.OrderStatusApproved, &now); err != nil {
			return nil, err
		}
		order.Status = domain.OrderStatusApproved
		order.PaymentStatus = p.Status
		notifyApproved(ctx, s.repos, s.mail, order, s.logger)
		result.Message = "Pago aprobado"

	case domain.OrderStatusRejected:
		if err := s.repos.Order.Delete(ctx, order.ExternalReference); err != nil {
			s.logger.Error("Failed to delete order after synchronous rejection",
				zap.String("order_ref", order.ExternalReference),
				zap.Error(err))
		}
		result.OrderDeleted = true
		result.Message = rejectionMessage(p.StatusDetail)

	default:
		if err := s.repos.Order.UpdatePaymentStatus(ctx, order.ExternalReference, paymentID, p.Status, domain.OrderStatusProcessing, nil); err != nil {
			return nil, err
		}
		result.Message = "Pago en proceso"
	}

	return result, nil
}

func rejectionMessage(statusDetail string) string {
	if msg, ok := rejectionReasons[statusDetail]; ok {
		return msg
	}
	return "El pago fue rechazado"
}

// notifyApproved sends the confirmation email for an approved order if
// this caller wins the notification slot. Email failure is logged and
// swallowed; it never propagates to the payment result.
func notifyApproved(ctx context.Context, repos *repository.Repositories, mail mailer.Mailer, order *domain.Order, logger *zap.Logger) {
	won, err := repos.Order.MarkNotified(ctx, order.ExternalReference)
	if err != nil {
		logger.Error("Failed to claim notification slot",
			zap.String("order_ref", order.ExternalReference),
			zap.Error(err))
		return
	}
	if !won {
		return
	}

	if err := mail.SendOrderConfirmation(ctx, order); err != nil {
		logger.Error("Failed to send order confirmation email",
			zap.String("order_ref", order.ExternalReference),
			zap.Error(err))
	}
}
