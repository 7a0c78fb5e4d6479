package email

import "time"

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// OrderConfirmationEmail is sent after a checkout session completes.
type OrderConfirmationEmail struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	OrderDate     time.Time
	Items         []OrderItem
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
	ShippingAddr  Address
}

func (e OrderConfirmationEmail) Subject() string {
	return "Order Confirmation - " + e.OrderNumber
}

func (e OrderConfirmationEmail) TemplateName() string {
	return "order_confirmation.html"
}

// OrderStatusUpdateEmail is sent when an order moves to a customer-facing
// fulfillment status (processing, shipped, delivered, cancelled).
type OrderStatusUpdateEmail struct {
	OrderNumber       string
	CustomerName      string
	CustomerEmail     string
	Status            string
	TrackingNumber    string // optional
	EstimatedDelivery string // optional
}

func (e OrderStatusUpdateEmail) Subject() string {
	return "Order " + e.OrderNumber + " Update"
}

func (e OrderStatusUpdateEmail) TemplateName() string {
	return "order_status_update.html"
}

// TeamWelcomeEmail is sent when a team member account is created.
type TeamWelcomeEmail struct {
	Email     string
	FirstName string
	Role      string
	LoginURL  string
}

func (e TeamWelcomeEmail) Subject() string {
	return "Welcome to the Team"
}

func (e TeamWelcomeEmail) TemplateName() string {
	return "team_welcome.html"
}

// Supporting types

// OrderItem represents a line item in an order
type OrderItem struct {
	ProductName string
	SKU         string
	Quantity    int
	PriceCents  int64
	TotalCents  int64
}

// Address represents a shipping address
type Address struct {
	Line1      string
	Line2      string // Optional
	City       string
	State      string
	PostalCode string
	Country    string
}
