package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/skadi/internal/billing"
	"github.com/dukerupert/skadi/internal/domain"
)

const (
	productA = "aaaaaaaa-0000-0000-0000-000000000001"
	productB = "aaaaaaaa-0000-0000-0000-000000000002"
)

func newCheckoutFixture(t *testing.T, products *mockProductStore, orders *mockOrderStore, provider *mockBilling) CheckoutService {
	t.Helper()
	svc, err := NewCheckoutService(products, orders, provider, nil, "ORD", "https://shop.example.com")
	require.NoError(t, err)
	return svc
}

func guestParams(items []CheckoutItem, subtotal, tax, shipping, discount int64) CreateCheckoutParams {
	return CreateCheckoutParams{
		Purchaser: domain.GuestPurchaser("Ada Lovelace", "ada@example.com", "555-0100"),
		Items:     items,
		ShippingAddress: domain.Address{
			Line1:      "1 Analytical Way",
			City:       "London",
			State:      "LDN",
			PostalCode: "EC1A",
			Country:    "GB",
		},
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TaxRate:       0.08,
		ShippingCents: shipping,
		DiscountCents: discount,
		TotalCents:    subtotal + tax + shipping - discount,
	}
}

func TestCreateCheckoutSession_PersistsOrderAndStartsSession(t *testing.T) {
	products := newMockProductStore(
		testProduct(productA, 2500, 10),
		testProduct(productB, 1000, 5),
	)
	orders := &mockOrderStore{}
	provider := &mockBilling{}
	svc := newCheckoutFixture(t, products, orders, provider)

	params := guestParams([]CheckoutItem{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, Quantity: 1},
	}, 6000, 480, 795, 0)

	result, err := svc.CreateCheckoutSession(context.Background(), params)
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	order := orders.created[0]

	// Client figures are persisted as given once they validate.
	assert.Equal(t, int64(6000), order.SubtotalCents)
	assert.Equal(t, int64(480), order.TaxCents)
	assert.Equal(t, int64(795), order.ShippingCents)
	assert.Equal(t, int64(7275), order.TotalCents)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)

	// Line snapshots carry catalog values at order time.
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(2500), order.Items[0].UnitPriceCents)
	assert.Equal(t, int64(5000), order.Items[0].TotalPriceCents)
	assert.Equal(t, int64(3000), order.TotalCostCents)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{4}-\d{5}$`), result.OrderNumber)
	assert.Equal(t, "cs_test_123", result.SessionID)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_123", result.RedirectURL)

	// Session is tied back to the order for the webhook.
	require.Len(t, provider.sessions, 1)
	session := provider.sessions[0]
	assert.Equal(t, order.ID.String(), session.Metadata["orderId"])
	assert.Equal(t, order.OrderNumber, session.Metadata["orderNumber"])
	assert.Equal(t, "ada@example.com", session.CustomerEmail)
	assert.Equal(t, order.ID.String(), session.IdempotencyKey)
	assert.Equal(t, "cs_test_123", orders.sessions[order.ID.String()])
}

func TestCreateCheckoutSession_SalePriceCharged(t *testing.T) {
	sale := testProduct(productA, 2000, 10)
	sale.OnSale = true
	sale.SalePriceCents = 1500

	orders := &mockOrderStore{}
	svc := newCheckoutFixture(t, newMockProductStore(sale), orders, &mockBilling{})

	params := guestParams([]CheckoutItem{{ProductID: productA, Quantity: 2}}, 3000, 0, 0, 0)

	_, err := svc.CreateCheckoutSession(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, orders.created, 1)
	assert.Equal(t, int64(1500), orders.created[0].Items[0].UnitPriceCents)
}

func TestCreateCheckoutSession_StockBoundary(t *testing.T) {
	t.Run("exact stock is allowed", func(t *testing.T) {
		orders := &mockOrderStore{}
		svc := newCheckoutFixture(t, newMockProductStore(testProduct(productA, 1000, 3)), orders, &mockBilling{})

		_, err := svc.CreateCheckoutSession(context.Background(),
			guestParams([]CheckoutItem{{ProductID: productA, Quantity: 3}}, 3000, 0, 0, 0))
		require.NoError(t, err)
		assert.Len(t, orders.created, 1)
	})

	t.Run("one over stock is rejected", func(t *testing.T) {
		orders := &mockOrderStore{}
		svc := newCheckoutFixture(t, newMockProductStore(testProduct(productA, 1000, 3)), orders, &mockBilling{})

		_, err := svc.CreateCheckoutSession(context.Background(),
			guestParams([]CheckoutItem{{ProductID: productA, Quantity: 4}}, 4000, 0, 0, 0))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.True(t, domain.IsCode(err, domain.ECONFLICT))
		assert.Empty(t, orders.created, "nothing may be persisted on rejection")
	})
}

func TestCreateCheckoutSession_RejectsBadLines(t *testing.T) {
	products := newMockProductStore(testProduct(productA, 1000, 10))
	inactive := testProduct(productB, 500, 10)
	inactive.Active = false
	products.products[productB] = inactive

	tests := []struct {
		name     string
		items    []CheckoutItem
		subtotal int64
		wantErr  error
		wantCode string
	}{
		{
			name:     "unknown product",
			items:    []CheckoutItem{{ProductID: "bbbbbbbb-0000-0000-0000-000000000009", Quantity: 1}},
			subtotal: 1000,
			wantErr:  ErrProductNotFound,
			wantCode: domain.ENOTFOUND,
		},
		{
			name:     "inactive product",
			items:    []CheckoutItem{{ProductID: productB, Quantity: 1}},
			subtotal: 500,
			wantErr:  ErrProductNotFound,
			wantCode: domain.ENOTFOUND,
		},
		{
			name:     "zero quantity",
			items:    []CheckoutItem{{ProductID: productA, Quantity: 0}},
			subtotal: 0,
			wantCode: domain.EINVALID,
		},
		{
			name:     "empty cart",
			items:    nil,
			subtotal: 0,
			wantCode: domain.EINVALID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderStore{}
			svc := newCheckoutFixture(t, products, orders, &mockBilling{})

			_, err := svc.CreateCheckoutSession(context.Background(),
				guestParams(tt.items, tt.subtotal, 0, 0, 0))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.True(t, domain.IsCode(err, tt.wantCode), "unexpected code for %v", err)
			assert.Empty(t, orders.created)
		})
	}
}

func TestCreateCheckoutSession_SubtotalMustMatchCatalog(t *testing.T) {
	orders := &mockOrderStore{}
	svc := newCheckoutFixture(t, newMockProductStore(testProduct(productA, 1000, 10)), orders, &mockBilling{})

	// Client claims a stale price.
	_, err := svc.CreateCheckoutSession(context.Background(),
		guestParams([]CheckoutItem{{ProductID: productA, Quantity: 2}}, 1800, 0, 0, 0))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.EINVALID))
	assert.Empty(t, orders.created)
}

func TestCreateCheckoutSession_GatewayFailureKeepsOrder(t *testing.T) {
	orders := &mockOrderStore{}
	provider := &mockBilling{
		createFunc: func(params billing.CreateCheckoutSessionParams) (*billing.CheckoutSession, error) {
			return nil, errors.New("stripe is down")
		},
	}
	svc := newCheckoutFixture(t, newMockProductStore(testProduct(productA, 1000, 10)), orders, provider)

	_, err := svc.CreateCheckoutSession(context.Background(),
		guestParams([]CheckoutItem{{ProductID: productA, Quantity: 1}}, 1000, 0, 0, 0))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.EPAYMENT))

	// The pending order survives the gateway failure.
	assert.Len(t, orders.created, 1)
}

func TestCreateCheckoutSession_RegisteredPurchaserSnapshotsEmail(t *testing.T) {
	orders := &mockOrderStore{}
	svc := newCheckoutFixture(t, newMockProductStore(testProduct(productA, 1000, 10)), orders, &mockBilling{})

	params := guestParams([]CheckoutItem{{ProductID: productA, Quantity: 1}}, 1000, 0, 0, 0)
	params.Purchaser = domain.RegisteredPurchaser(testUUID("cccccccc-0000-0000-0000-000000000001"), "user@example.com")

	_, err := svc.CreateCheckoutSession(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, orders.created, 1)
	assert.Equal(t, "user@example.com", orders.created[0].Purchaser.ContactEmail())
}
