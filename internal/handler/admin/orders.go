package admin

import (
	"net/http"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// OrderHandler serves the back-office order endpoints.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates the admin order handler.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// orderView is the admin shape of an order, including the purchaser
// snapshot that the domain type keeps out of its own JSON.
type orderView struct {
	*domain.Order
	Customer customerView `json:"customer"`
}

type customerView struct {
	Kind   string `json:"kind"`
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

func toOrderView(order *domain.Order) orderView {
	view := orderView{Order: order}
	p := order.Purchaser
	view.Customer.Kind = string(p.Kind())
	view.Customer.Email = p.ContactEmail()
	if userID, ok := p.UserID(); ok {
		view.Customer.UserID = userID.String()
	}
	if name, _, phone, ok := p.Guest(); ok {
		view.Customer.Name = name
		view.Customer.Phone = phone
	}
	return view
}

// List handles GET /admin/api/orders with optional status, limit, and
// offset query parameters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Limit:  queryInt32(r, "limit", 50),
		Offset: queryInt32(r, "offset", 0),
	}

	orders, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}

	handler.JSON(w, http.StatusOK, map[string]any{"orders": views})
}

// Get handles GET /admin/api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, toOrderView(order))
}

// updateStatusRequest is the PATCH payload for the fulfillment status.
type updateStatusRequest struct {
	Status            string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	TrackingNumber    string `json:"trackingNumber"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// UpdateStatus handles PATCH /admin/api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := handler.BindJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), service.UpdateStatusParams{
		OrderID:           r.PathValue("id"),
		Status:            domain.OrderStatus(req.Status),
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
		Actor:             actorFrom(r),
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, toOrderView(order))
}

// Delete handles DELETE /admin/api/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), r.PathValue("id"), actorFrom(r)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.NoContent(w)
}
