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

func shippableOrder(status domain.OrderStatus) *domain.Order {
	order := paidOrder()
	order.Status = status
	return order
}

func newOrderFixture(t *testing.T, orders *mockOrderStore, notifier *mockNotifier) (OrderService, *mockActivity) {
	t.Helper()
	activity := &mockActivity{}
	svc, err := NewOrderService(orders, activity, notifier, nil)
	require.NoError(t, err)
	return svc, activity
}

func TestUpdateStatus_TransitionRecordsActivityAndNotifies(t *testing.T) {
	current := shippableOrder(domain.OrderStatusProcessing)
	orders := &mockOrderStore{
		getFunc: func(id pgtype.UUID) (*domain.Order, error) {
			cp := *current
			return &cp, nil
		},
		updateFunc: func(params domain.UpdateOrderStatusParams) error {
			current.Status = params.Status
			current.TrackingNumber = params.TrackingNumber
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc, activity := newOrderFixture(t, orders, notifier)

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		OrderID:        paidOrderID,
		Status:         domain.OrderStatusShipped,
		TrackingNumber: "1Z999",
		Actor:          Actor{Name: "Grace", Role: "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	require.Len(t, activity.entries, 1)
	entry := activity.entries[0]
	assert.Equal(t, "status_changed", entry.Action)
	assert.Equal(t, domain.ActivityCategoryOrder, entry.Category)
	assert.Equal(t, "Grace", entry.ActorName)
	assert.Equal(t, "processing", entry.Metadata["from"])
	assert.Equal(t, "shipped", entry.Metadata["to"])

	require.Len(t, notifier.statusUpdates, 1)
	assert.Equal(t, "shipped", notifier.statusUpdates[0].Status)
	assert.Equal(t, "1Z999", notifier.statusUpdates[0].TrackingNumber)
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	orders := &mockOrderStore{
		getFunc: func(id pgtype.UUID) (*domain.Order, error) {
			return shippableOrder(domain.OrderStatusProcessing), nil
		},
	}
	notifier := &mockNotifier{}
	svc, activity := newOrderFixture(t, orders, notifier)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		OrderID: paidOrderID,
		Status:  domain.OrderStatusProcessing,
	})
	require.NoError(t, err)

	assert.Empty(t, orders.statusUpdates, "no write for a same-status update")
	assert.Empty(t, activity.entries)
	assert.Empty(t, notifier.statusUpdates)
}

func TestUpdateStatus_RejectsBackwardTransition(t *testing.T) {
	orders := &mockOrderStore{
		getFunc: func(id pgtype.UUID) (*domain.Order, error) {
			return shippableOrder(domain.OrderStatusDelivered), nil
		},
	}
	svc, activity := newOrderFixture(t, orders, nil)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		OrderID: paidOrderID,
		Status:  domain.OrderStatusShipped,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.True(t, domain.IsCode(err, domain.EINVALID))
	assert.Empty(t, orders.statusUpdates)
	assert.Empty(t, activity.entries)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newOrderFixture(t, &mockOrderStore{}, nil)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		OrderID: paidOrderID,
		Status:  domain.OrderStatus("lost_in_transit"),
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.EINVALID))
}

func TestUpdateStatus_NotifierFailureStillSucceeds(t *testing.T) {
	current := shippableOrder(domain.OrderStatusProcessing)
	orders := &mockOrderStore{
		getFunc: func(id pgtype.UUID) (*domain.Order, error) {
			cp := *current
			return &cp, nil
		},
		updateFunc: func(params domain.UpdateOrderStatusParams) error {
			current.Status = params.Status
			return nil
		},
	}
	notifier := &mockNotifier{err: errors.New("smtp unreachable")}
	svc, activity := newOrderFixture(t, orders, notifier)

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		OrderID: paidOrderID,
		Status:  domain.OrderStatusShipped,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Len(t, activity.entries, 1, "the audit entry is written even when the email fails")
}

func TestUpdateStatus_ConfirmedDoesNotEmail(t *testing.T) {
	current := shippableOrder(domain.OrderStatusPending)
	orders := &mockOrderStore{
		getFunc: func(id pgtype.UUID) (*domain.Order, error) {
			cp := *current
			return &cp, nil
		},
		updateFunc: func(params domain.UpdateOrderStatusParams) error {
			current.Status = params.Status
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc, _ := newOrderFixture(t, orders, notifier)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		OrderID: paidOrderID,
		Status:  domain.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Empty(t, notifier.statusUpdates, "confirmed is internal, not customer-facing")
}

func TestDeleteOrder_CapturesAuditBeforeDelete(t *testing.T) {
	orders := &mockOrderStore{
		getFunc: func(id pgtype.UUID) (*domain.Order, error) {
			return shippableOrder(domain.OrderStatusCancelled), nil
		},
	}
	svc, activity := newOrderFixture(t, orders, nil)

	err := svc.DeleteOrder(context.Background(), paidOrderID, Actor{Name: "Grace", Role: "admin"})
	require.NoError(t, err)

	require.Len(t, orders.deleted, 1)
	assert.Equal(t, paidOrderID, orders.deleted[0])

	require.Len(t, activity.entries, 1)
	entry := activity.entries[0]
	assert.Equal(t, "deleted", entry.Action)
	assert.Equal(t, "ORD-2608-00042", entry.TargetName)
	assert.Equal(t, int64(5000), entry.Metadata["totalCents"])
	assert.Equal(t, "Ada Lovelace", entry.Metadata["customerName"])
	assert.Equal(t, 1, entry.Metadata["itemCount"])
}

func TestDeleteOrder_MissingOrderLeavesNoAudit(t *testing.T) {
	orders := &mockOrderStore{} // getFunc defaults to not found
	svc, activity := newOrderFixture(t, orders, nil)

	err := svc.DeleteOrder(context.Background(), paidOrderID, Actor{Name: "Grace"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.Empty(t, orders.deleted)
	assert.Empty(t, activity.entries, "a failed delete must not leave an audit entry")
}

func TestDeleteOrder_MalformedID(t *testing.T) {
	svc, activity := newOrderFixture(t, &mockOrderStore{}, nil)

	err := svc.DeleteOrder(context.Background(), "not-a-uuid", Actor{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Empty(t, activity.entries)
}
