package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/skadi/internal/domain"
)

// ProductStore implements domain.ProductStore.
type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, name, sku, description, price_cents, compare_at_cents, sale_price_cents,
	on_sale, stock_quantity, cost_cents, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var description pgtype.Text
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &description, &p.PriceCents, &p.CompareAtCents, &p.SalePriceCents,
		&p.OnSale, &p.StockQuantity, &p.CostCents, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = stringFromText(description)
	return &p, nil
}

func (s *ProductStore) GetProduct(ctx context.Context, id pgtype.UUID) (*domain.Product, error) {
	const op = "product.get"

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	product, err := scanProduct(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "product", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}

	return product, nil
}

func (s *ProductStore) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	const op = "product.list"

	query := fmt.Sprintf(`SELECT %s FROM products`, productColumns)
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan product")
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read products")
	}

	return products, nil
}

func (s *ProductStore) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	const op = "product.create"

	query := fmt.Sprintf(`
		INSERT INTO products (name, sku, description, price_cents, compare_at_cents, sale_price_cents,
			on_sale, stock_quantity, cost_cents, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, productColumns)

	product, err := scanProduct(s.pool.QueryRow(ctx, query,
		params.Name, params.SKU, textFromString(params.Description),
		params.PriceCents, params.CompareAtCents, params.SalePriceCents,
		params.OnSale, params.StockQuantity, params.CostCents, params.Active,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, fmt.Sprintf("sku already exists: %s", params.SKU))
		}
		return nil, domain.Internal(err, op, "failed to create product")
	}

	return product, nil
}

func (s *ProductStore) UpdateProduct(ctx context.Context, id pgtype.UUID, params domain.UpdateProductParams) (*domain.Product, error) {
	const op = "product.update"

	set := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Description != nil {
		add("description", textFromString(*params.Description))
	}
	if params.PriceCents != nil {
		add("price_cents", *params.PriceCents)
	}
	if params.CompareAtCents != nil {
		add("compare_at_cents", *params.CompareAtCents)
	}
	if params.SalePriceCents != nil {
		add("sale_price_cents", *params.SalePriceCents)
	}
	if params.OnSale != nil {
		add("on_sale", *params.OnSale)
	}
	if params.StockQuantity != nil {
		add("stock_quantity", *params.StockQuantity)
	}
	if params.CostCents != nil {
		add("cost_cents", *params.CostCents)
	}
	if params.Active != nil {
		add("active", *params.Active)
	}

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(set, ", "), productColumns)

	product, err := scanProduct(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "product", id.String())
		}
		return nil, domain.Internal(err, op, "failed to update product")
	}

	return product, nil
}

func (s *ProductStore) ArchiveProduct(ctx context.Context, id pgtype.UUID) error {
	const op = "product.archive"

	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to archive product")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "product", id.String())
	}

	return nil
}

// isUniqueViolation reports a postgres unique constraint error (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
