package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/skadi/internal/domain"
)

const paidOrderID = "dddddddd-0000-0000-0000-000000000001"

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:            testUUID(paidOrderID),
		OrderNumber:   "ORD-2608-00042",
		Purchaser:     domain.GuestPurchaser("Ada Lovelace", "ada@example.com", ""),
		Status:        domain.OrderStatusProcessing,
		PaymentStatus: domain.PaymentStatusPaid,
		SubtotalCents: 5000,
		TotalCents:    5000,
		Items: []domain.OrderItem{
			{ProductName: "Widget", SKU: "W-1", UnitPriceCents: 2500, Quantity: 2, TotalPriceCents: 5000},
		},
	}
}

func TestHandleCheckoutCompleted_MarksPaidAndSendsConfirmation(t *testing.T) {
	var gotParams domain.MarkOrderPaidParams
	orders := &mockOrderStore{
		markPaidFunc: func(params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error) {
			gotParams = params
			return &domain.PaidOrderResult{Applied: true, Order: paidOrder()}, nil
		},
	}
	notifier := &mockNotifier{}

	svc, err := NewPaymentEventService(orders, notifier, nil)
	require.NoError(t, err)

	err = svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{
		OrderID:         paidOrderID,
		SessionID:       "cs_test_123",
		PaymentIntentID: "pi_test_123",
	})
	require.NoError(t, err)

	assert.Equal(t, paidOrderID, gotParams.OrderID.String())
	assert.Equal(t, "cs_test_123", gotParams.SessionID)
	assert.Equal(t, "pi_test_123", gotParams.PaymentIntentID)

	require.Len(t, notifier.confirmations, 1)
	confirmation := notifier.confirmations[0]
	assert.Equal(t, "ORD-2608-00042", confirmation.OrderNumber)
	assert.Equal(t, "ada@example.com", confirmation.CustomerEmail)
	require.Len(t, confirmation.Items, 1)
	assert.Equal(t, "Widget", confirmation.Items[0].ProductName)
}

func TestHandleCheckoutCompleted_DuplicateDeliveryIsNoOp(t *testing.T) {
	orders := &mockOrderStore{
		markPaidFunc: func(params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error) {
			return &domain.PaidOrderResult{Applied: false}, nil
		},
	}
	notifier := &mockNotifier{}

	svc, err := NewPaymentEventService(orders, notifier, nil)
	require.NoError(t, err)

	err = svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{
		OrderID:   paidOrderID,
		SessionID: "cs_test_123",
	})
	require.NoError(t, err, "duplicate delivery must not surface an error")
	assert.Empty(t, notifier.confirmations, "no second confirmation email")
}

func TestHandleCheckoutCompleted_EmailFailureDoesNotFailEvent(t *testing.T) {
	orders := &mockOrderStore{
		markPaidFunc: func(params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error) {
			return &domain.PaidOrderResult{Applied: true, Order: paidOrder()}, nil
		},
	}
	notifier := &mockNotifier{err: errors.New("smtp unreachable")}

	svc, err := NewPaymentEventService(orders, notifier, nil)
	require.NoError(t, err)

	err = svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{
		OrderID: paidOrderID,
	})
	assert.NoError(t, err, "the payment is recorded; the email is best-effort")
}

func TestHandleCheckoutCompleted_ShortfallsAreReportedNotFatal(t *testing.T) {
	orders := &mockOrderStore{
		markPaidFunc: func(params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error) {
			return &domain.PaidOrderResult{
				Applied: true,
				Order:   paidOrder(),
				Shortfalls: []domain.StockShortfall{
					{ProductID: testUUID(productA), Requested: 2, Available: 1},
				},
			}, nil
		},
	}

	svc, err := NewPaymentEventService(orders, nil, nil)
	require.NoError(t, err)

	err = svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{OrderID: paidOrderID})
	assert.NoError(t, err)
}

func TestHandleCheckoutCompleted_InvalidOrderID(t *testing.T) {
	svc, err := NewPaymentEventService(&mockOrderStore{}, nil, nil)
	require.NoError(t, err)

	err = svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{OrderID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.EINVALID))
}

func TestHandleCheckoutExpired(t *testing.T) {
	t.Run("pending order is expired", func(t *testing.T) {
		var gotID pgtype.UUID
		orders := &mockOrderStore{
			markExpiredFunc: func(id pgtype.UUID) (bool, error) {
				gotID = id
				return true, nil
			},
		}

		svc, err := NewPaymentEventService(orders, nil, nil)
		require.NoError(t, err)

		require.NoError(t, svc.HandleCheckoutExpired(context.Background(), paidOrderID))
		assert.Equal(t, paidOrderID, gotID.String())
	})

	t.Run("already paid order is left alone", func(t *testing.T) {
		orders := &mockOrderStore{
			markExpiredFunc: func(id pgtype.UUID) (bool, error) {
				return false, nil
			},
		}

		svc, err := NewPaymentEventService(orders, nil, nil)
		require.NoError(t, err)

		assert.NoError(t, svc.HandleCheckoutExpired(context.Background(), paidOrderID))
	})
}
