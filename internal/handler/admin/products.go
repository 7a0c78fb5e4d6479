package admin

import (
	"net/http"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// ProductHandler serves the back-office catalog endpoints. Unlike the
// storefront view, responses include cost, stock, and inactive entries.
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates the admin product handler.
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /admin/api/products. Includes archived products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), false)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{"products": products})
}

// Get handles GET /admin/api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, product)
}

// createProductRequest is the POST payload for a new catalog entry.
type createProductRequest struct {
	Name           string `json:"name" validate:"required"`
	SKU            string `json:"sku" validate:"required"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"priceCents" validate:"gte=0"`
	CompareAtCents int64  `json:"compareAtCents" validate:"gte=0"`
	SalePriceCents int64  `json:"salePriceCents" validate:"gte=0"`
	OnSale         bool   `json:"onSale"`
	StockQuantity  int32  `json:"stockQuantity" validate:"gte=0"`
	CostCents      int64  `json:"costCents" validate:"gte=0"`
	Active         bool   `json:"active"`
}

// Create handles POST /admin/api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := handler.BindJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), domain.CreateProductParams{
		Name:           req.Name,
		SKU:            req.SKU,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		CompareAtCents: req.CompareAtCents,
		SalePriceCents: req.SalePriceCents,
		OnSale:         req.OnSale,
		StockQuantity:  req.StockQuantity,
		CostCents:      req.CostCents,
		Active:         req.Active,
	}, actorFrom(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, product)
}

// updateProductRequest is the PATCH payload. Absent fields leave the
// product untouched.
type updateProductRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PriceCents     *int64  `json:"priceCents" validate:"omitempty,gte=0"`
	CompareAtCents *int64  `json:"compareAtCents" validate:"omitempty,gte=0"`
	SalePriceCents *int64  `json:"salePriceCents" validate:"omitempty,gte=0"`
	OnSale         *bool   `json:"onSale"`
	StockQuantity  *int32  `json:"stockQuantity" validate:"omitempty,gte=0"`
	CostCents      *int64  `json:"costCents" validate:"omitempty,gte=0"`
	Active         *bool   `json:"active"`
}

// Update handles PATCH /admin/api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := handler.BindJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), domain.UpdateProductParams{
		Name:           req.Name,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		CompareAtCents: req.CompareAtCents,
		SalePriceCents: req.SalePriceCents,
		OnSale:         req.OnSale,
		StockQuantity:  req.StockQuantity,
		CostCents:      req.CostCents,
		Active:         req.Active,
	}, actorFrom(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, product)
}

// Archive handles DELETE /admin/api/products/{id}. Products are never
// hard-deleted; historical order items keep referencing them.
func (h *ProductHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.ArchiveProduct(r.Context(), r.PathValue("id"), actorFrom(r)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.NoContent(w)
}
