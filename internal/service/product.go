package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/skadi/internal/domain"
)

// CatalogService is the storefront and back-office catalog surface.
type CatalogService interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)

	CreateProduct(ctx context.Context, params domain.CreateProductParams, actor Actor) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, params domain.UpdateProductParams, actor Actor) (*domain.Product, error)
	ArchiveProduct(ctx context.Context, productID string, actor Actor) error
}

type catalogService struct {
	products domain.ProductStore
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(products domain.ProductStore, activity ActivityRecorder, logger *slog.Logger) (CatalogService, error) {
	if products == nil {
		return nil, fmt.Errorf("product store is required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &catalogService{products: products, activity: activity, logger: logger}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productIDRaw string) (*domain.Product, error) {
	const op = "product.get"

	productID, err := parseUUID(productIDRaw)
	if err != nil {
		return nil, domain.NotFound(op, "product", productIDRaw)
	}
	return s.products.GetProduct(ctx, productID)
}

func (s *catalogService) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	return s.products.ListProducts(ctx, activeOnly)
}

func (s *catalogService) CreateProduct(ctx context.Context, params domain.CreateProductParams, actor Actor) (*domain.Product, error) {
	const op = "product.create"

	if params.Name == "" {
		return nil, domain.Invalid(op, "name is required")
	}
	if params.SKU == "" {
		return nil, domain.Invalid(op, "sku is required")
	}
	if params.PriceCents < 0 || params.SalePriceCents < 0 || params.CostCents < 0 {
		return nil, domain.Invalid(op, "prices must not be negative")
	}
	if params.StockQuantity < 0 {
		return nil, domain.Invalid(op, "stock quantity must not be negative")
	}

	product, err := s.products.CreateProduct(ctx, params)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "created",
		Category:    domain.ActivityCategoryProduct,
		Description: fmt.Sprintf("Product %s (%s) created", product.Name, product.SKU),
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		TargetID:    product.ID.String(),
		TargetType:  "product",
		TargetName:  product.Name,
	})

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productIDRaw string, params domain.UpdateProductParams, actor Actor) (*domain.Product, error) {
	const op = "product.update"

	productID, err := parseUUID(productIDRaw)
	if err != nil {
		return nil, domain.NotFound(op, "product", productIDRaw)
	}

	product, err := s.products.UpdateProduct(ctx, productID, params)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "updated",
		Category:    domain.ActivityCategoryProduct,
		Description: fmt.Sprintf("Product %s (%s) updated", product.Name, product.SKU),
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		TargetID:    productIDRaw,
		TargetType:  "product",
		TargetName:  product.Name,
	})

	return product, nil
}

func (s *catalogService) ArchiveProduct(ctx context.Context, productIDRaw string, actor Actor) error {
	const op = "product.archive"

	productID, err := parseUUID(productIDRaw)
	if err != nil {
		return domain.NotFound(op, "product", productIDRaw)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.products.ArchiveProduct(ctx, productID); err != nil {
		return err
	}

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "archived",
		Category:    domain.ActivityCategoryProduct,
		Description: fmt.Sprintf("Product %s (%s) archived", product.Name, product.SKU),
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		TargetID:    productIDRaw,
		TargetType:  "product",
		TargetName:  product.Name,
	})

	return nil
}
