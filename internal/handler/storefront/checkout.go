package storefront

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// CheckoutHandler starts hosted checkout sessions.
type CheckoutHandler struct {
	checkout service.CheckoutService
}

// NewCheckoutHandler creates the storefront checkout handler.
func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// checkoutRequest is the checkout payload. Exactly one of userId or
// guest must be set; money figures are client-computed and re-validated
// server side.
type checkoutRequest struct {
	UserID string        `json:"userId" validate:"omitempty,uuid"`
	Guest  *guestDetails `json:"guest"`
	Email  string        `json:"email" validate:"omitempty,email"`

	Items []checkoutItem `json:"items" validate:"required,min=1,dive"`

	ShippingAddress shippingAddress `json:"shippingAddress" validate:"required"`

	SubtotalCents int64   `json:"subtotalCents" validate:"gte=0"`
	TaxCents      int64   `json:"taxCents" validate:"gte=0"`
	TaxRate       float64 `json:"taxRate" validate:"gte=0"`
	ShippingCents int64   `json:"shippingCents" validate:"gte=0"`
	DiscountCents int64   `json:"discountCents" validate:"gte=0"`
	TotalCents    int64   `json:"totalCents" validate:"gte=0"`
}

type guestDetails struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

type checkoutItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int32  `json:"quantity" validate:"required,gt=0"`
}

type shippingAddress struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// purchaser builds the domain purchaser from the request union.
func (req *checkoutRequest) purchaser() (domain.Purchaser, error) {
	const op = "checkout.request"

	switch {
	case req.UserID != "" && req.Guest != nil:
		return domain.Purchaser{}, domain.Invalid(op, "provide either userId or guest, not both")
	case req.UserID != "":
		if req.Email == "" {
			return domain.Purchaser{}, domain.Invalid(op, "email is required for registered checkout")
		}
		var userID pgtype.UUID
		if err := userID.Scan(req.UserID); err != nil {
			return domain.Purchaser{}, domain.Invalid(op, "userId is not a valid id")
		}
		return domain.RegisteredPurchaser(userID, req.Email), nil
	case req.Guest != nil:
		return domain.GuestPurchaser(req.Guest.Name, req.Guest.Email, req.Guest.Phone), nil
	default:
		return domain.Purchaser{}, domain.Invalid(op, "provide either userId or guest")
	}
}

// Create handles POST /api/checkout.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := handler.BindJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	purchaser, err := req.purchaser()
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.checkout.CreateCheckoutSession(r.Context(), service.CreateCheckoutParams{
		Purchaser: purchaser,
		Items:     items,
		ShippingAddress: domain.Address{
			Line1:      req.ShippingAddress.Line1,
			Line2:      req.ShippingAddress.Line2,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		SubtotalCents: req.SubtotalCents,
		TaxCents:      req.TaxCents,
		TaxRate:       req.TaxRate,
		ShippingCents: req.ShippingCents,
		DiscountCents: req.DiscountCents,
		TotalCents:    req.TotalCents,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, map[string]any{
		"orderId":     result.OrderID.String(),
		"orderNumber": result.OrderNumber,
		"sessionId":   result.SessionID,
		"redirectUrl": result.RedirectURL,
	})
}
