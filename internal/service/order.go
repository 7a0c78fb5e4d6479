package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/email"
	"github.com/dukerupert/skadi/internal/telemetry"
)

// OrderService is the back-office order surface: queries, the
// fulfillment status transition, and deletion with audit.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// UpdateStatus moves an order along the fulfillment graph. When the
	// status actually changes it appends an activity entry and sends a
	// best-effort customer email for customer-facing statuses. A
	// same-status update is a no-op with no side effects.
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Order, error)

	// DeleteOrder removes an order after capturing an audit entry with
	// its key figures.
	DeleteOrder(ctx context.Context, orderID string, actor Actor) error
}

// UpdateStatusParams carries the requested transition. Empty tracking
// fields leave existing values untouched.
type UpdateStatusParams struct {
	OrderID           string
	Status            domain.OrderStatus
	TrackingNumber    string
	EstimatedDelivery string
	Actor             Actor
}

type orderService struct {
	orders   domain.OrderStore
	activity ActivityRecorder
	notifier email.Notifier
	logger   *slog.Logger
}

// NewOrderService creates the order service. The notifier may be nil,
// which disables status emails.
func NewOrderService(orders domain.OrderStore, activity ActivityRecorder, notifier email.Notifier, logger *slog.Logger) (OrderService, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &orderService{
		orders:   orders,
		activity: activity,
		notifier: notifier,
		logger:   logger,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderIDRaw string) (*domain.Order, error) {
	const op = "order.get"

	orderID, err := parseUUID(orderIDRaw)
	if err != nil {
		return nil, domain.WrapError(ErrOrderNotFound, domain.ENOTFOUND, op,
			fmt.Sprintf("order not found: %s", orderIDRaw))
	}
	return s.orders.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.GetOrderByNumber(ctx, number)
}

func (s *orderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	const op = "order.list"

	if filter.Status != "" && !domain.ValidOrderStatus(filter.Status) {
		return nil, domain.Errorf(domain.EINVALID, op, "invalid status filter: %s", filter.Status)
	}
	return s.orders.ListOrders(ctx, filter)
}

func (s *orderService) UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Order, error) {
	const op = "order.update_status"

	if !domain.ValidOrderStatus(params.Status) {
		return nil, domain.Errorf(domain.EINVALID, op, "invalid status: %s", params.Status)
	}

	orderID, err := parseUUID(params.OrderID)
	if err != nil {
		return nil, domain.WrapError(ErrOrderNotFound, domain.ENOTFOUND, op,
			fmt.Sprintf("order not found: %s", params.OrderID))
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if previous == params.Status {
		// Nothing to do: no write, no activity entry, no email.
		return order, nil
	}

	if !domain.CanTransition(previous, params.Status) {
		return nil, domain.WrapError(ErrInvalidStatusTransition, domain.EINVALID, op,
			fmt.Sprintf("cannot move order from %s to %s", previous, params.Status))
	}

	if err := s.orders.UpdateOrderStatus(ctx, domain.UpdateOrderStatusParams{
		OrderID:           orderID,
		Status:            params.Status,
		TrackingNumber:    params.TrackingNumber,
		EstimatedDelivery: params.EstimatedDelivery,
	}); err != nil {
		return nil, err
	}

	updated, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		"order_id", params.OrderID,
		"order_number", updated.OrderNumber,
		"from", previous,
		"to", params.Status,
		"actor", params.Actor.Name,
	)
	if telemetry.Business != nil {
		telemetry.Business.OrderStatusChanged.WithLabelValues(string(params.Status)).Inc()
	}

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "status_changed",
		Category:    domain.ActivityCategoryOrder,
		Description: fmt.Sprintf("Order %s moved from %s to %s", updated.OrderNumber, previous, params.Status),
		ActorName:   params.Actor.Name,
		ActorRole:   params.Actor.Role,
		TargetID:    params.OrderID,
		TargetType:  "order",
		TargetName:  updated.OrderNumber,
		Metadata: map[string]any{
			"from": string(previous),
			"to":   string(params.Status),
		},
	})

	s.notifyStatusChange(ctx, updated)

	return updated, nil
}

// notifyStatusChange emails the purchaser for customer-facing statuses.
// Best-effort: failures are logged, the update already succeeded.
func (s *orderService) notifyStatusChange(ctx context.Context, order *domain.Order) {
	if s.notifier == nil || !domain.StatusNotifiesCustomer(order.Status) {
		return
	}
	to := order.Purchaser.ContactEmail()
	if to == "" {
		return
	}

	data := email.OrderStatusUpdateEmail{
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.Purchaser.DisplayName(),
		CustomerEmail:     to,
		Status:            string(order.Status),
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: order.EstimatedDelivery,
	}

	if err := s.notifier.SendOrderStatusUpdate(ctx, data); err != nil {
		s.logger.Error("status update email failed",
			"order_number", order.OrderNumber, "to", to, "error", err)
		if telemetry.Business != nil {
			telemetry.Business.EmailFailed.WithLabelValues("order_status_update").Inc()
		}
		return
	}
	if telemetry.Business != nil {
		telemetry.Business.EmailSent.WithLabelValues("order_status_update").Inc()
	}
}

func (s *orderService) DeleteOrder(ctx context.Context, orderIDRaw string, actor Actor) error {
	const op = "order.delete"

	orderID, err := parseUUID(orderIDRaw)
	if err != nil {
		return domain.WrapError(ErrOrderNotFound, domain.ENOTFOUND, op,
			fmt.Sprintf("order not found: %s", orderIDRaw))
	}

	// Read first: the audit entry captures what is about to disappear,
	// and a missing order must not leave any entry behind.
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return domain.WrapError(ErrOrderNotFound, domain.ENOTFOUND, op,
				fmt.Sprintf("order not found: %s", orderIDRaw))
		}
		return err
	}

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "deleted",
		Category:    domain.ActivityCategoryOrder,
		Description: fmt.Sprintf("Order %s deleted", order.OrderNumber),
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		TargetID:    orderIDRaw,
		TargetType:  "order",
		TargetName:  order.OrderNumber,
		Metadata: map[string]any{
			"customerName": order.Purchaser.DisplayName(),
			"totalCents":   order.TotalCents,
			"status":       string(order.Status),
			"itemCount":    len(order.Items),
		},
	})

	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		return err
	}

	s.logger.Info("order deleted",
		"order_id", orderIDRaw,
		"order_number", order.OrderNumber,
		"actor", actor.Name,
	)

	return nil
}
