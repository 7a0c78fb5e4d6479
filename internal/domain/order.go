package domain

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// OrderStatus is the fulfillment state of an order. It is independent of
// PaymentStatus: an order can be paid but not yet shipped, or cancelled
// while a refund is still pending.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusPartialRefund PaymentStatus = "partial_refund"
)

// ValidOrderStatus reports whether s is a known fulfillment status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// orderTransitions is the forward-only fulfillment graph. Cancelled and
// refunded are reachable from every non-terminal state; delivered orders
// can still be refunded.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// CanTransition reports whether an order may move from one fulfillment
// status to another. Same-status "transitions" are allowed and treated
// as no-ops by callers.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusNotifiesCustomer reports whether a transition into the given
// status should trigger a customer-facing email.
func StatusNotifiesCustomer(s OrderStatus) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PurchaserKind discriminates the purchaser union.
type PurchaserKind string

const (
	PurchaserRegistered PurchaserKind = "registered"
	PurchaserGuest      PurchaserKind = "guest"
)

// Purchaser identifies who placed an order: either a registered user by
// id, or a guest by captured contact details. Exactly one identity is
// set; the contact email is always captured at checkout so payment and
// fulfillment notifications work for both kinds.
type Purchaser struct {
	kind   PurchaserKind
	userID pgtype.UUID
	name   string
	email  string
	phone  string
}

// RegisteredPurchaser builds a purchaser linked to a user account.
// The email is the contact snapshot captured at checkout time.
func RegisteredPurchaser(userID pgtype.UUID, email string) Purchaser {
	return Purchaser{kind: PurchaserRegistered, userID: userID, email: email}
}

// GuestPurchaser builds a purchaser from guest contact details.
func GuestPurchaser(name, email, phone string) Purchaser {
	return Purchaser{kind: PurchaserGuest, name: name, email: email, phone: phone}
}

func (p Purchaser) Kind() PurchaserKind { return p.kind }

// UserID returns the linked user id for registered purchasers.
func (p Purchaser) UserID() (pgtype.UUID, bool) {
	return p.userID, p.kind == PurchaserRegistered
}

// Guest returns the captured guest details for guest purchasers.
func (p Purchaser) Guest() (name, email, phone string, ok bool) {
	if p.kind != PurchaserGuest {
		return "", "", "", false
	}
	return p.name, p.email, p.phone, true
}

// ContactEmail returns the email notifications go to, empty if unknown.
func (p Purchaser) ContactEmail() string { return p.email }

// DisplayName returns a human-readable purchaser name for audit entries.
func (p Purchaser) DisplayName() string {
	if p.kind == PurchaserGuest && p.name != "" {
		return p.name
	}
	if p.kind == PurchaserRegistered && p.userID.Valid {
		return "user " + p.userID.String()
	}
	return "guest"
}

// Validate checks the purchaser union invariant.
func (p Purchaser) Validate() error {
	switch p.kind {
	case PurchaserRegistered:
		if !p.userID.Valid {
			return Invalid("purchaser.validate", "registered purchaser requires a user id")
		}
	case PurchaserGuest:
		if p.name == "" || p.email == "" {
			return Invalid("purchaser.validate", "guest purchaser requires name and email")
		}
	default:
		return Invalid("purchaser.validate", "purchaser must be registered or guest")
	}
	return nil
}

// Address is a shipping destination snapshot stored on the order.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem is a line item with catalog values captured at order time so
// later catalog edits never change what the customer bought.
type OrderItem struct {
	ID              pgtype.UUID `json:"id"`
	OrderID         pgtype.UUID `json:"orderId"`
	ProductID       pgtype.UUID `json:"productId"`
	ProductName     string      `json:"productName"`
	SKU             string      `json:"sku"`
	UnitPriceCents  int64       `json:"unitPriceCents"`
	Quantity        int32       `json:"quantity"`
	TotalPriceCents int64       `json:"totalPriceCents"`
	UnitCostCents   int64       `json:"unitCostCents"`
}

// Order is the order record. Money is stored in cents. OrderNumber is
// assigned once at creation and never changes.
type Order struct {
	ID                pgtype.UUID        `json:"id"`
	OrderNumber       string             `json:"orderNumber"`
	Purchaser         Purchaser          `json:"-"`
	Items             []OrderItem        `json:"items"`
	SubtotalCents     int64              `json:"subtotalCents"`
	TaxCents          int64              `json:"taxCents"`
	TaxRate           float64            `json:"taxRate"`
	ShippingCents     int64              `json:"shippingCents"`
	DiscountCents     int64              `json:"discountCents"`
	TotalCents        int64              `json:"totalCents"`
	TotalCostCents    int64              `json:"totalCostCents"`
	Status            OrderStatus        `json:"status"`
	PaymentStatus     PaymentStatus      `json:"paymentStatus"`
	ShippingAddress   Address            `json:"shippingAddress"`
	TrackingNumber    string             `json:"trackingNumber,omitempty"`
	EstimatedDelivery string             `json:"estimatedDelivery,omitempty"`
	ProviderSessionID string             `json:"-"`
	ProviderPaymentID string             `json:"-"`
	CreatedAt         pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt         pgtype.Timestamptz `json:"updatedAt"`
}

// Validate enforces the order money invariants:
// total = subtotal + tax + shipping - discount, and each line's total
// equals unit price times quantity.
func (o *Order) Validate() error {
	const op = "order.validate"

	if len(o.Items) == 0 {
		return Invalid(op, "order must contain at least one item")
	}
	if o.SubtotalCents < 0 || o.TaxCents < 0 || o.ShippingCents < 0 || o.DiscountCents < 0 || o.TotalCents < 0 {
		return Invalid(op, "money amounts must not be negative")
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return Errorf(EINVALID, op, "item %s quantity must be positive", item.ProductName)
		}
		if item.TotalPriceCents != item.UnitPriceCents*int64(item.Quantity) {
			return Errorf(EINVALID, op, "item %s line total does not equal unit price times quantity", item.ProductName)
		}
	}
	if o.TotalCents != o.SubtotalCents+o.TaxCents+o.ShippingCents-o.DiscountCents {
		return Invalid(op, "total must equal subtotal + tax + shipping - discount")
	}
	return o.Purchaser.Validate()
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status OrderStatus // empty matches all fulfillment statuses
	Limit  int32
	Offset int32
}

// MarkOrderPaidParams carries provider ids recorded on the paid transition.
type MarkOrderPaidParams struct {
	OrderID         pgtype.UUID
	SessionID       string
	PaymentIntentID string
}

// StockShortfall records a line whose product had less stock than was
// ordered when payment landed. The decrement clamps at zero instead of
// going negative; shortfalls surface in logs for manual follow-up.
type StockShortfall struct {
	ProductID pgtype.UUID
	Requested int32
	Available int32
}

// PaidOrderResult is the outcome of MarkOrderPaid. Applied is false when
// the order had already left payment_status=pending, which makes webhook
// retries idempotent.
type PaidOrderResult struct {
	Applied    bool
	Order      *Order
	Shortfalls []StockShortfall
}

// UpdateOrderStatusParams updates fulfillment state. Tracking fields are
// only written when non-empty.
type UpdateOrderStatusParams struct {
	OrderID           pgtype.UUID
	Status            OrderStatus
	TrackingNumber    string
	EstimatedDelivery string
}

// SalesSummaryRow is the raw aggregate the store computes for reporting.
type SalesSummaryRow struct {
	OrderCount     int64
	RevenueCents   int64
	TotalCostCents int64
}

// OrderStore is the persistence port for orders.
type OrderStore interface {
	// NextOrderNumber returns a formatted, globally unique order number
	// backed by an atomic counter.
	NextOrderNumber(ctx context.Context, prefix string, now time.Time) (string, error)

	// CreateOrder persists the order and its items in one transaction and
	// fills in generated ids and timestamps.
	CreateOrder(ctx context.Context, order *Order) error

	GetOrder(ctx context.Context, id pgtype.UUID) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)

	// SetCheckoutSession records the provider session id after the session
	// is created.
	SetCheckoutSession(ctx context.Context, id pgtype.UUID, sessionID string) error

	// MarkOrderPaid transitions pending -> paid/processing and decrements
	// stock for each line in the same transaction. Returns Applied=false
	// when the order was not payment-pending.
	MarkOrderPaid(ctx context.Context, params MarkOrderPaidParams) (*PaidOrderResult, error)

	// MarkOrderExpired transitions pending -> failed/cancelled without
	// touching stock. Returns false when the order was not payment-pending.
	MarkOrderExpired(ctx context.Context, id pgtype.UUID) (bool, error)

	UpdateOrderStatus(ctx context.Context, params UpdateOrderStatusParams) error
	DeleteOrder(ctx context.Context, id pgtype.UUID) error

	// SalesSummary aggregates paid orders created in [from, to).
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummaryRow, error)
}
