package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider using Stripe Checkout Sessions.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider and configures
// the SDK with the API key and an HTTP timeout.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	stripe.Key = config.APIKey
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}))

	return &StripeProvider{config: config}, nil
}

// CreateCheckoutSession creates a Stripe Checkout Session in payment mode
// with one price line per item.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	if len(params.LineItems) == 0 {
		return nil, fmt.Errorf("stripe: checkout session requires at least one line item")
	}

	var totalCents int64
	for _, item := range params.LineItems {
		totalCents += item.UnitAmountCents * item.Quantity
	}
	if totalCents < 50 {
		return nil, ErrAmountTooSmall
	}

	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx

	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if params.IdempotencyKey != "" {
		sessionParams.IdempotencyKey = stripe.String(params.IdempotencyKey)
	}

	for _, item := range params.LineItems {
		sessionParams.LineItems = append(sessionParams.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	for key, value := range params.Metadata {
		sessionParams.AddMetadata(key, value)
	}

	sess, err := session.New(sessionParams)
	if err != nil {
		return nil, wrapStripeError(err, "failed to create checkout session")
	}

	result := &CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
	}
	if sess.PaymentIntent != nil {
		result.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.ExpiresAt > 0 {
		result.ExpiresAt = time.Unix(sess.ExpiresAt, 0)
	}

	return result, nil
}

// VerifyWebhookSignature verifies a Stripe webhook signature.
func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	if _, err := webhook.ConstructEvent(payload, signature, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}
	return nil
}

// wrapStripeError converts SDK errors into StripeError for consistent
// logging and decline detection.
func wrapStripeError(err error, message string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		wrapped := &StripeError{
			Message:       message,
			Code:          string(stripeErr.Code),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
		if stripeErr.DeclineCode != "" {
			wrapped.DeclineCode = string(stripeErr.DeclineCode)
		}
		if wrapped.IsDeclined() {
			// Let callers match errors.Is(err, ErrPaymentFailed) without
			// knowing about StripeError.
			wrapped.OriginalError = errors.Join(ErrPaymentFailed, err)
		}
		return wrapped
	}
	return fmt.Errorf("%s: %w", message, err)
}
