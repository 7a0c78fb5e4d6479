package service

import "errors"

var (
	// ErrProductNotFound is returned when a checkout references a product
	// that does not exist or is no longer sold.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a requested quantity exceeds
	// available stock at validation time.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotFound is returned when an order id matches nothing.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatusTransition is returned when a fulfillment status
	// change is not allowed by the forward-only graph.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrPaymentAlreadyProcessed is returned when a payment event arrives
	// for an order that already left payment-pending. Webhook retries hit
	// this path and are acknowledged without side effects.
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
)
