// Package storefront holds the public buyer-facing API handlers.
package storefront

import (
	"net/http"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// ProductHandler serves the public catalog. Responses never include
// cost or raw stock counts, only what a buyer needs to see.
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates the storefront product handler.
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// productView is the public shape of a catalog entry.
type productView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	Description    string `json:"description,omitempty"`
	PriceCents     int64  `json:"priceCents"`
	CompareAtCents int64  `json:"compareAtCents,omitempty"`
	SalePriceCents int64  `json:"salePriceCents,omitempty"`
	OnSale         bool   `json:"onSale"`
	InStock        bool   `json:"inStock"`
}

func toProductView(p *domain.Product) productView {
	return productView{
		ID:             p.ID.String(),
		Name:           p.Name,
		SKU:            p.SKU,
		Description:    p.Description,
		PriceCents:     p.PriceCents,
		CompareAtCents: p.CompareAtCents,
		SalePriceCents: p.SalePriceCents,
		OnSale:         p.OnSale,
		InStock:        p.StockQuantity > 0,
	}
}

// List handles GET /api/products. Only active products are returned.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), true)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i]))
	}

	handler.JSON(w, http.StatusOK, map[string]any{"products": views})
}

// Get handles GET /api/products/{id}. Inactive products are hidden, the
// response is indistinguishable from a missing product.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if !product.Active {
		handler.NotFoundResponse(w, r)
		return
	}

	handler.JSON(w, http.StatusOK, toProductView(product))
}
