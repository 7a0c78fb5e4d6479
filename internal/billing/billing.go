package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session for an order.
	// The returned session URL is where the buyer completes payment.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	// Must be called before acting on any webhook payload.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CreateCheckoutSessionParams contains parameters for creating a checkout session.
type CreateCheckoutSessionParams struct {
	// LineItems become the session's price lines, one per order item plus
	// optional shipping and tax lines.
	LineItems []SessionLineItem

	// Currency code (ISO 4217 lowercase) - e.g., "usd"
	Currency string

	// CustomerEmail prefills the buyer's email on the hosted page.
	CustomerEmail string

	// SuccessURL and CancelURL are where the buyer lands after payment.
	SuccessURL string
	CancelURL  string

	// Metadata for correlating the session back to the order
	// (orderId, orderNumber).
	Metadata map[string]string

	// IdempotencyKey prevents duplicate sessions on retries.
	// Typically the order id.
	IdempotencyKey string
}

// SessionLineItem represents one price line on the hosted checkout page.
type SessionLineItem struct {
	// Name shown to the buyer (product name, "Shipping", "Tax").
	Name string

	// UnitAmountCents is the per-unit amount in smallest currency unit.
	UnitAmountCents int64

	// Quantity of this line item.
	Quantity int64
}

// CheckoutSession represents a created hosted checkout session.
type CheckoutSession struct {
	// ID is the provider session ID (cs_...).
	ID string

	// URL is the hosted payment page to redirect the buyer to.
	URL string

	// PaymentIntentID is set once the provider attaches one (pi_...).
	PaymentIntentID string

	// ExpiresAt is when the session stops accepting payment.
	ExpiresAt time.Time
}
