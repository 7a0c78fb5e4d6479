// Package webhook receives payment gateway callbacks. Signature
// verification happens here; everything downstream trusts the event.
package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/skadi/internal/billing"
	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
	"github.com/dukerupert/skadi/internal/telemetry"
)

// StripeHandler processes incoming Stripe webhook events.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger checkout.session.completed
type StripeHandler struct {
	provider      billing.Provider
	payments      service.PaymentEventService
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeHandler creates the webhook handler.
func NewStripeHandler(provider billing.Provider, payments service.PaymentEventService, webhookSecret string, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{
		provider:      provider,
		payments:      payments,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleWebhook verifies and dispatches a Stripe event. Every verified
// event is acknowledged with 200 regardless of processing outcome, so
// Stripe does not retry events we cannot act on. Only signature failures
// get a non-200.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Unauthorized("webhook.stripe", "Missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.webhookSecret); err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Unauthorized("webhook.stripe", "Invalid signature"))
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Invalid JSON"))
		return
	}

	h.logger.Info("stripe event received", "type", event.Type, "event_id", event.ID)
	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(string(event.Type)).Inc()
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(r, event)

	case "checkout.session.expired":
		h.handleCheckoutExpired(r, event)

	case "payment_intent.payment_failed":
		h.handlePaymentFailed(r, event)

	default:
		h.logger.Debug("unhandled stripe event type", "type", event.Type)
	}

	// Acknowledge receipt. Stripe retries anything that isn't a 2xx.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

func (h *StripeHandler) handleCheckoutCompleted(r *http.Request, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.eventFailed(event, "malformed checkout session payload", err)
		return
	}

	orderID := session.Metadata["orderId"]
	if orderID == "" {
		h.eventFailed(event, "checkout session missing orderId metadata", nil)
		return
	}

	var paymentIntentID string
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	err := h.payments.HandleCheckoutCompleted(r.Context(), service.CheckoutCompletedParams{
		OrderID:         orderID,
		SessionID:       session.ID,
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		h.eventFailed(event, "failed to finalize paid order", err)
		return
	}
}

func (h *StripeHandler) handleCheckoutExpired(r *http.Request, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.eventFailed(event, "malformed checkout session payload", err)
		return
	}

	orderID := session.Metadata["orderId"]
	if orderID == "" {
		h.eventFailed(event, "checkout session missing orderId metadata", nil)
		return
	}

	if err := h.payments.HandleCheckoutExpired(r.Context(), orderID); err != nil {
		h.eventFailed(event, "failed to expire order", err)
		return
	}
}

func (h *StripeHandler) handlePaymentFailed(r *http.Request, event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.eventFailed(event, "malformed payment intent payload", err)
		return
	}

	reason := "unknown"
	if intent.LastPaymentError != nil {
		reason = string(intent.LastPaymentError.Code)
	}

	h.payments.HandlePaymentFailed(r.Context(), intent.ID, reason)
}

// eventFailed logs and counts a processing failure. The caller still
// returns 200: these failures need operator attention, not Stripe retries.
func (h *StripeHandler) eventFailed(event stripe.Event, msg string, err error) {
	h.logger.Error("stripe event processing failed",
		"type", event.Type, "event_id", event.ID, "reason", msg, "error", err)
	if telemetry.Business != nil {
		telemetry.Business.WebhookFailed.WithLabelValues(string(event.Type)).Inc()
	}
}
