package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/skadi/internal/domain"
)

// OrderStore implements domain.OrderStore.
type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// NextOrderNumber formats {prefix}-{YYMM}-{seq} from an atomic per-prefix
// counter. The upsert increments and returns in one statement, so two
// concurrent checkouts can never observe the same sequence value.
func (s *OrderStore) NextOrderNumber(ctx context.Context, prefix string, now time.Time) (string, error) {
	const op = "order.next_number"

	var seq int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO order_counters (prefix, seq) VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq`, prefix).Scan(&seq)
	if err != nil {
		return "", domain.Internal(err, op, "failed to advance order counter")
	}

	return fmt.Sprintf("%s-%s-%05d", prefix, now.UTC().Format("0601"), seq), nil
}

const orderColumns = `id, order_number, user_id, guest_name, contact_email, guest_phone,
	subtotal_cents, tax_cents, tax_rate, shipping_cents, discount_cents, total_cents, total_cost_cents,
	status, payment_status,
	ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
	tracking_number, estimated_delivery, provider_session_id, provider_payment_id,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var userID pgtype.UUID
	var guestName, contactEmail, guestPhone pgtype.Text
	var line2, tracking, estimated, sessionID, paymentID pgtype.Text

	err := row.Scan(
		&o.ID, &o.OrderNumber, &userID, &guestName, &contactEmail, &guestPhone,
		&o.SubtotalCents, &o.TaxCents, &o.TaxRate, &o.ShippingCents, &o.DiscountCents, &o.TotalCents, &o.TotalCostCents,
		&o.Status, &o.PaymentStatus,
		&o.ShippingAddress.Line1, &line2, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&tracking, &estimated, &sessionID, &paymentID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		o.Purchaser = domain.RegisteredPurchaser(userID, stringFromText(contactEmail))
	} else {
		o.Purchaser = domain.GuestPurchaser(stringFromText(guestName), stringFromText(contactEmail), stringFromText(guestPhone))
	}
	o.ShippingAddress.Line2 = stringFromText(line2)
	o.TrackingNumber = stringFromText(tracking)
	o.EstimatedDelivery = stringFromText(estimated)
	o.ProviderSessionID = stringFromText(sessionID)
	o.ProviderPaymentID = stringFromText(paymentID)

	return &o, nil
}

func loadOrderItems(ctx context.Context, q querier, orderID pgtype.UUID) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_name, sku, unit_price_cents, quantity, total_price_cents, unit_cost_cents
		FROM order_items WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.SKU,
			&item.UnitPriceCents, &item.Quantity, &item.TotalPriceCents, &item.UnitCostCents,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateOrder inserts the order and its items in one transaction and fills
// in generated ids and timestamps.
func (s *OrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	const op = "order.create"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var userID pgtype.UUID
	var guestName, guestPhone pgtype.Text
	if id, ok := order.Purchaser.UserID(); ok {
		userID = id
	} else if name, _, phone, ok := order.Purchaser.Guest(); ok {
		guestName = textFromString(name)
		guestPhone = textFromString(phone)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, guest_name, contact_email, guest_phone,
			subtotal_cents, tax_cents, tax_rate, shipping_cents, discount_cents, total_cents, total_cost_cents,
			status, payment_status,
			ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at`,
		order.OrderNumber, userID, guestName, textFromString(order.Purchaser.ContactEmail()), guestPhone,
		order.SubtotalCents, order.TaxCents, order.TaxRate, order.ShippingCents, order.DiscountCents,
		order.TotalCents, order.TotalCostCents,
		order.Status, order.PaymentStatus,
		order.ShippingAddress.Line1, textFromString(order.ShippingAddress.Line2),
		order.ShippingAddress.City, order.ShippingAddress.State,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict(op, fmt.Sprintf("order number already exists: %s", order.OrderNumber))
		}
		return domain.Internal(err, op, "failed to insert order")
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, sku, unit_price_cents, quantity, total_price_cents, unit_cost_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			item.OrderID, item.ProductID, item.ProductName, item.SKU,
			item.UnitPriceCents, item.Quantity, item.TotalPriceCents, item.UnitCostCents,
		).Scan(&item.ID)
		if err != nil {
			return domain.Internal(err, op, "failed to insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "failed to commit order")
	}

	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id pgtype.UUID) (*domain.Order, error) {
	return s.getOrderBy(ctx, "order.get", "id = $1", id.String(), id)
}

func (s *OrderStore) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.getOrderBy(ctx, "order.get_by_number", "order_number = $1", number, number)
}

func (s *OrderStore) getOrderBy(ctx context.Context, op, where, identifier string, arg any) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s`, orderColumns, where)
	order, err := scanOrder(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "order", identifier)
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	order.Items, err = loadOrderItems(ctx, s.pool, order.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	return order, nil
}

func (s *OrderStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	const op = "order.list"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM orders`, orderColumns)
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan order")
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read orders")
	}

	for i := range orders {
		orders[i].Items, err = loadOrderItems(ctx, s.pool, orders[i].ID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load order items")
		}
	}

	return orders, nil
}

func (s *OrderStore) SetCheckoutSession(ctx context.Context, id pgtype.UUID, sessionID string) error {
	const op = "order.set_session"

	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET provider_session_id = $2, updated_at = now() WHERE id = $1`,
		id, textFromString(sessionID))
	if err != nil {
		return domain.Internal(err, op, "failed to record checkout session")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "order", id.String())
	}

	return nil
}

// MarkOrderPaid flips a payment-pending order to paid/processing and
// decrements stock for each line in the same transaction. The status
// guard makes duplicate webhook deliveries no-ops: only the first one
// sees payment_status = 'pending'.
func (s *OrderStore) MarkOrderPaid(ctx context.Context, params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error) {
	const op = "order.mark_paid"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid', status = 'processing',
			provider_session_id = COALESCE(NULLIF($2, ''), provider_session_id),
			provider_payment_id = COALESCE(NULLIF($3, ''), provider_payment_id),
			updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'`,
		params.OrderID, params.SessionID, params.PaymentIntentID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update payment status")
	}

	if tag.RowsAffected() == 0 {
		// Distinguish "already processed" from "no such order".
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, params.OrderID).Scan(&exists); err != nil {
			return nil, domain.Internal(err, op, "failed to check order")
		}
		if !exists {
			return nil, domain.NotFound(op, "order", params.OrderID.String())
		}
		return &domain.PaidOrderResult{Applied: false}, nil
	}

	items, err := loadOrderItems(ctx, tx, params.OrderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	var shortfalls []domain.StockShortfall
	for _, item := range items {
		var available int32
		err := tx.QueryRow(ctx,
			`SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE`, item.ProductID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Product deleted since checkout. Nothing to decrement.
				continue
			}
			return nil, domain.Internal(err, op, "failed to lock product stock")
		}

		if available < item.Quantity {
			shortfalls = append(shortfalls, domain.StockShortfall{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			})
		}

		// Clamp at zero, never negative.
		_, err = tx.Exec(ctx, `
			UPDATE products
			SET stock_quantity = GREATEST(stock_quantity - $2, 0), updated_at = now()
			WHERE id = $1`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to decrement stock")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, op, "failed to commit paid transition")
	}

	order, err := s.GetOrder(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	return &domain.PaidOrderResult{Applied: true, Order: order, Shortfalls: shortfalls}, nil
}

// MarkOrderExpired flips a payment-pending order to failed/cancelled.
// Stock was never decremented for pending orders, so none is restored.
func (s *OrderStore) MarkOrderExpired(ctx context.Context, id pgtype.UUID) (bool, error) {
	const op = "order.mark_expired"

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', status = 'cancelled', updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'`, id)
	if err != nil {
		return false, domain.Internal(err, op, "failed to expire order")
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, domain.Internal(err, op, "failed to check order")
		}
		if !exists {
			return false, domain.NotFound(op, "order", id.String())
		}
		return false, nil
	}

	return true, nil
}

func (s *OrderStore) UpdateOrderStatus(ctx context.Context, params domain.UpdateOrderStatusParams) error {
	const op = "order.update_status"

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2,
			tracking_number = COALESCE(NULLIF($3, ''), tracking_number),
			estimated_delivery = COALESCE(NULLIF($4, ''), estimated_delivery),
			updated_at = now()
		WHERE id = $1`,
		params.OrderID, params.Status, params.TrackingNumber, params.EstimatedDelivery)
	if err != nil {
		return domain.Internal(err, op, "failed to update order status")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "order", params.OrderID.String())
	}

	return nil
}

func (s *OrderStore) DeleteOrder(ctx context.Context, id pgtype.UUID) error {
	const op = "order.delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete order")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "order", id.String())
	}

	return nil
}

func (s *OrderStore) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummaryRow, error) {
	const op = "order.sales_summary"

	var row domain.SalesSummaryRow
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_cents), 0), COALESCE(SUM(total_cost_cents), 0)
		FROM orders
		WHERE payment_status = 'paid' AND created_at >= $1 AND created_at < $2`,
		from, to).Scan(&row.OrderCount, &row.RevenueCents, &row.TotalCostCents)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to aggregate sales")
	}

	return &row, nil
}
