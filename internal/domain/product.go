package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a catalog entry. Prices and cost are stored in cents.
type Product struct {
	ID               pgtype.UUID        `json:"id"`
	Name             string             `json:"name"`
	SKU              string             `json:"sku"`
	Description      string             `json:"description,omitempty"`
	PriceCents       int64              `json:"priceCents"`
	CompareAtCents   int64              `json:"compareAtCents,omitempty"`
	SalePriceCents   int64              `json:"salePriceCents,omitempty"`
	OnSale           bool               `json:"onSale"`
	StockQuantity    int32              `json:"stockQuantity"`
	CostCents        int64              `json:"costCents"`
	Active           bool               `json:"active"`
	CreatedAt        pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt        pgtype.Timestamptz `json:"updatedAt"`
}

// CustomerPrice is the price a buyer pays right now: the sale price when
// the product is on sale and one is set, the base price otherwise.
func (p *Product) CustomerPrice() int64 {
	if p.OnSale && p.SalePriceCents > 0 {
		return p.SalePriceCents
	}
	return p.PriceCents
}

// InStock reports whether the requested quantity can be fulfilled.
func (p *Product) InStock(quantity int32) bool {
	return p.StockQuantity >= quantity
}

// CreateProductParams are the fields accepted on product creation.
type CreateProductParams struct {
	Name           string
	SKU            string
	Description    string
	PriceCents     int64
	CompareAtCents int64
	SalePriceCents int64
	OnSale         bool
	StockQuantity  int32
	CostCents      int64
	Active         bool
}

// UpdateProductParams are the fields accepted on product update. Nil
// pointers leave the column untouched.
type UpdateProductParams struct {
	Name           *string
	Description    *string
	PriceCents     *int64
	CompareAtCents *int64
	SalePriceCents *int64
	OnSale         *bool
	StockQuantity  *int32
	CostCents      *int64
	Active         *bool
}

// ProductStore is the persistence port for the catalog.
type ProductStore interface {
	GetProduct(ctx context.Context, id pgtype.UUID) (*Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)
	UpdateProduct(ctx context.Context, id pgtype.UUID, params UpdateProductParams) (*Product, error)

	// ArchiveProduct deactivates a product. Archived products stay
	// referenced by historical order items.
	ArchiveProduct(ctx context.Context, id pgtype.UUID) error
}
