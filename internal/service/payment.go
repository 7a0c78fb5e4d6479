package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/email"
	"github.com/dukerupert/skadi/internal/telemetry"
)

// PaymentEventService applies verified payment gateway events to orders.
// Handlers verify signatures before calling in; everything here assumes
// the event is authentic.
type PaymentEventService interface {
	// HandleCheckoutCompleted transitions the order to paid/processing,
	// decrements stock, and sends a best-effort confirmation email.
	// Duplicate deliveries are no-ops.
	HandleCheckoutCompleted(ctx context.Context, params CheckoutCompletedParams) error

	// HandleCheckoutExpired transitions a payment-pending order to
	// failed/cancelled. Stock is untouched.
	HandleCheckoutExpired(ctx context.Context, orderID string) error

	// HandlePaymentFailed records a failed payment attempt. Log only; the
	// buyer can retry within the same session.
	HandlePaymentFailed(ctx context.Context, paymentIntentID, reason string)
}

// CheckoutCompletedParams carries the gateway ids from the completed
// session event.
type CheckoutCompletedParams struct {
	OrderID         string
	SessionID       string
	PaymentIntentID string
}

type paymentEventService struct {
	orders   domain.OrderStore
	notifier email.Notifier
	logger   *slog.Logger
}

// NewPaymentEventService creates the payment event service. The notifier
// may be nil, which disables confirmation emails.
func NewPaymentEventService(orders domain.OrderStore, notifier email.Notifier, logger *slog.Logger) (PaymentEventService, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &paymentEventService{
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}, nil
}

func (s *paymentEventService) HandleCheckoutCompleted(ctx context.Context, params CheckoutCompletedParams) error {
	const op = "payment.checkout_completed"

	orderID, err := parseUUID(params.OrderID)
	if err != nil {
		return domain.Errorf(domain.EINVALID, op, "invalid order id in session metadata: %s", params.OrderID)
	}

	result, err := s.orders.MarkOrderPaid(ctx, domain.MarkOrderPaidParams{
		OrderID:         orderID,
		SessionID:       params.SessionID,
		PaymentIntentID: params.PaymentIntentID,
	})
	if err != nil {
		return err
	}

	if !result.Applied {
		// Duplicate delivery. The first one already did the work.
		s.logger.Info("payment event already processed",
			"order_id", params.OrderID, "session_id", params.SessionID)
		return nil
	}

	order := result.Order

	for _, shortfall := range result.Shortfalls {
		s.logger.Warn("stock shortfall on paid order",
			"order_id", params.OrderID,
			"order_number", order.OrderNumber,
			"product_id", shortfall.ProductID.String(),
			"requested", shortfall.Requested,
			"available", shortfall.Available,
		)
		if telemetry.Business != nil {
			telemetry.Business.StockShortfall.Inc()
		}
	}

	s.logger.Info("order paid",
		"order_id", params.OrderID,
		"order_number", order.OrderNumber,
		"total_cents", order.TotalCents,
	)
	if telemetry.Business != nil {
		telemetry.Business.CheckoutCompleted.Inc()
		telemetry.Business.OrdersPaid.Inc()
		telemetry.Business.OrderValue.Observe(float64(order.TotalCents) / 100)
	}

	s.sendConfirmation(ctx, order)

	return nil
}

// sendConfirmation is best-effort: a failed email never fails the event,
// since the payment is already recorded and the gateway must not retry.
func (s *paymentEventService) sendConfirmation(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	to := order.Purchaser.ContactEmail()
	if to == "" {
		return
	}

	data := email.OrderConfirmationEmail{
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.Purchaser.DisplayName(),
		CustomerEmail: to,
		OrderDate:     order.CreatedAt.Time,
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.ShippingCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		ShippingAddr: email.Address{
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, email.OrderItem{
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    int(item.Quantity),
			PriceCents:  item.UnitPriceCents,
			TotalCents:  item.TotalPriceCents,
		})
	}

	if err := s.notifier.SendOrderConfirmation(ctx, data); err != nil {
		s.logger.Error("order confirmation email failed",
			"order_number", order.OrderNumber, "to", to, "error", err)
		if telemetry.Business != nil {
			telemetry.Business.EmailFailed.WithLabelValues("order_confirmation").Inc()
		}
		return
	}
	if telemetry.Business != nil {
		telemetry.Business.EmailSent.WithLabelValues("order_confirmation").Inc()
	}
}

func (s *paymentEventService) HandleCheckoutExpired(ctx context.Context, orderIDRaw string) error {
	const op = "payment.checkout_expired"

	orderID, err := parseUUID(orderIDRaw)
	if err != nil {
		return domain.Errorf(domain.EINVALID, op, "invalid order id in session metadata: %s", orderIDRaw)
	}

	applied, err := s.orders.MarkOrderExpired(ctx, orderID)
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Info("expired event ignored, order not payment-pending", "order_id", orderIDRaw)
		return nil
	}

	s.logger.Info("order expired unpaid", "order_id", orderIDRaw)
	return nil
}

func (s *paymentEventService) HandlePaymentFailed(ctx context.Context, paymentIntentID, reason string) {
	s.logger.Warn("payment attempt failed",
		"payment_intent_id", paymentIntentID,
		"reason", reason,
	)
}
