package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/skadi/internal/billing"
	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/telemetry"
)

// CheckoutService turns a validated cart into a pending order and a
// hosted payment session.
type CheckoutService interface {
	// CreateCheckoutSession validates every item, persists a
	// pending/pending order, and creates the payment session. Validation
	// failures abort before anything is written; a gateway failure after
	// persistence leaves the pending order in place to be abandoned.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutParams) (*CheckoutResult, error)
}

// CheckoutItem is one requested line: which product, how many.
type CheckoutItem struct {
	ProductID string
	Quantity  int32
}

// CreateCheckoutParams carries the client-computed money figures along
// with the cart. The figures are validated against catalog prices and the
// additive invariant, then persisted as given.
type CreateCheckoutParams struct {
	Purchaser       domain.Purchaser
	Items           []CheckoutItem
	ShippingAddress domain.Address
	SubtotalCents   int64
	TaxCents        int64
	TaxRate         float64
	ShippingCents   int64
	DiscountCents   int64
	TotalCents      int64
}

// CheckoutResult is what the storefront needs to redirect the buyer.
type CheckoutResult struct {
	OrderID     pgtype.UUID
	OrderNumber string
	SessionID   string
	RedirectURL string
}

type checkoutService struct {
	products    domain.ProductStore
	orders      domain.OrderStore
	billing     billing.Provider
	logger      *slog.Logger
	orderPrefix string
	baseURL     string
}

// NewCheckoutService creates the checkout service.
func NewCheckoutService(
	products domain.ProductStore,
	orders domain.OrderStore,
	billingProvider billing.Provider,
	logger *slog.Logger,
	orderPrefix string,
	baseURL string,
) (CheckoutService, error) {
	if products == nil {
		return nil, fmt.Errorf("product store is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if billingProvider == nil {
		return nil, fmt.Errorf("billing provider is required")
	}
	if orderPrefix == "" {
		return nil, fmt.Errorf("order prefix is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &checkoutService{
		products:    products,
		orders:      orders,
		billing:     billingProvider,
		logger:      logger,
		orderPrefix: orderPrefix,
		baseURL:     baseURL,
	}, nil
}

func (s *checkoutService) CreateCheckoutSession(ctx context.Context, params CreateCheckoutParams) (*CheckoutResult, error) {
	const op = "checkout.create"

	if err := params.Purchaser.Validate(); err != nil {
		return nil, err
	}
	if len(params.Items) == 0 {
		checkoutFailed("empty_cart")
		return nil, domain.Invalid(op, "order must contain at least one item")
	}

	// Validate every line before touching anything. A single bad line
	// rejects the whole checkout with nothing persisted.
	items := make([]domain.OrderItem, 0, len(params.Items))
	var computedSubtotal, totalCost int64
	for _, requested := range params.Items {
		if requested.Quantity <= 0 {
			checkoutFailed("invalid_quantity")
			return nil, domain.Errorf(domain.EINVALID, op, "quantity must be positive for product %s", requested.ProductID)
		}

		productID, err := parseUUID(requested.ProductID)
		if err != nil {
			checkoutFailed("product_not_found")
			return nil, domain.WrapError(ErrProductNotFound, domain.ENOTFOUND, op,
				fmt.Sprintf("product not found: %s", requested.ProductID))
		}

		product, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				checkoutFailed("product_not_found")
				return nil, domain.WrapError(ErrProductNotFound, domain.ENOTFOUND, op,
					fmt.Sprintf("product not found: %s", requested.ProductID))
			}
			return nil, err
		}
		if !product.Active {
			checkoutFailed("product_not_found")
			return nil, domain.WrapError(ErrProductNotFound, domain.ENOTFOUND, op,
				fmt.Sprintf("product not found: %s", requested.ProductID))
		}
		if !product.InStock(requested.Quantity) {
			checkoutFailed("insufficient_stock")
			return nil, domain.WrapError(ErrInsufficientStock, domain.ECONFLICT, op,
				fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
					product.Name, requested.Quantity, product.StockQuantity))
		}

		unitPrice := product.CustomerPrice()
		lineTotal := unitPrice * int64(requested.Quantity)
		computedSubtotal += lineTotal
		totalCost += product.CostCents * int64(requested.Quantity)

		items = append(items, domain.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			SKU:             product.SKU,
			UnitPriceCents:  unitPrice,
			Quantity:        requested.Quantity,
			TotalPriceCents: lineTotal,
			UnitCostCents:   product.CostCents,
		})
	}

	if params.SubtotalCents != computedSubtotal {
		checkoutFailed("subtotal_mismatch")
		return nil, domain.Errorf(domain.EINVALID, op,
			"subtotal does not match current catalog prices: got %d, expected %d",
			params.SubtotalCents, computedSubtotal)
	}

	order := &domain.Order{
		Purchaser:       params.Purchaser,
		Items:           items,
		SubtotalCents:   params.SubtotalCents,
		TaxCents:        params.TaxCents,
		TaxRate:         params.TaxRate,
		ShippingCents:   params.ShippingCents,
		DiscountCents:   params.DiscountCents,
		TotalCents:      params.TotalCents,
		TotalCostCents:  totalCost,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingAddress: params.ShippingAddress,
	}
	if err := order.Validate(); err != nil {
		checkoutFailed("invalid_totals")
		return nil, err
	}

	number, err := s.orders.NextOrderNumber(ctx, s.orderPrefix, time.Now())
	if err != nil {
		return nil, err
	}
	order.OrderNumber = number

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.ID.String(),
		"order_number", order.OrderNumber,
		"total_cents", order.TotalCents,
		"items", len(order.Items),
	)

	session, err := s.billing.CreateCheckoutSession(ctx, s.buildSessionParams(order))
	if err != nil {
		// The pending order stays; it is abandoned naturally if the buyer
		// never pays.
		checkoutFailed("gateway")
		s.logger.Error("checkout session creation failed",
			"order_id", order.ID.String(),
			"order_number", order.OrderNumber,
			"error", err,
		)
		return nil, domain.Payment(err, op, "payment provider could not create a checkout session")
	}

	if err := s.orders.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		// Correlation id only; the webhook also records it.
		s.logger.Warn("failed to record checkout session id",
			"order_id", order.ID.String(), "session_id", session.ID, "error", err)
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.Inc()
	}

	return &CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (s *checkoutService) buildSessionParams(order *domain.Order) billing.CreateCheckoutSessionParams {
	lineItems := make([]billing.SessionLineItem, 0, len(order.Items)+2)
	for _, item := range order.Items {
		lineItems = append(lineItems, billing.SessionLineItem{
			Name:            item.ProductName,
			UnitAmountCents: item.UnitPriceCents,
			Quantity:        int64(item.Quantity),
		})
	}
	if order.ShippingCents > 0 {
		lineItems = append(lineItems, billing.SessionLineItem{
			Name:            "Shipping",
			UnitAmountCents: order.ShippingCents,
			Quantity:        1,
		})
	}
	if order.TaxCents > 0 {
		lineItems = append(lineItems, billing.SessionLineItem{
			Name:            "Tax",
			UnitAmountCents: order.TaxCents,
			Quantity:        1,
		})
	}

	return billing.CreateCheckoutSessionParams{
		LineItems:     lineItems,
		Currency:      "usd",
		CustomerEmail: order.Purchaser.ContactEmail(),
		SuccessURL:    s.baseURL + "/checkout/success?order=" + order.OrderNumber,
		CancelURL:     s.baseURL + "/checkout/cancelled?order=" + order.OrderNumber,
		Metadata: map[string]string{
			"orderId":     order.ID.String(),
			"orderNumber": order.OrderNumber,
		},
		IdempotencyKey: order.ID.String(),
	}
}

func checkoutFailed(reason string) {
	if telemetry.Business != nil {
		telemetry.Business.CheckoutFailed.WithLabelValues(reason).Inc()
	}
}
