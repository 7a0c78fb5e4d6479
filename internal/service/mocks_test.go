package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/skadi/internal/billing"
	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/email"
)

// mockProductStore implements domain.ProductStore backed by a map.
type mockProductStore struct {
	products map[string]*domain.Product
}

func newMockProductStore(products ...*domain.Product) *mockProductStore {
	m := &mockProductStore{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID.String()] = p
	}
	return m
}

func (m *mockProductStore) GetProduct(ctx context.Context, id pgtype.UUID) (*domain.Product, error) {
	p, ok := m.products[id.String()]
	if !ok {
		return nil, domain.NotFound("product.get", "product", id.String())
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductStore) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProductStore) UpdateProduct(ctx context.Context, id pgtype.UUID, params domain.UpdateProductParams) (*domain.Product, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProductStore) ArchiveProduct(ctx context.Context, id pgtype.UUID) error {
	return errors.New("not implemented")
}

// mockOrderStore implements domain.OrderStore with per-method hooks and
// call recording.
type mockOrderStore struct {
	nextNumberFunc  func(prefix string, now time.Time) (string, error)
	createFunc      func(order *domain.Order) error
	getFunc         func(id pgtype.UUID) (*domain.Order, error)
	markPaidFunc    func(params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error)
	markExpiredFunc func(id pgtype.UUID) (bool, error)
	updateFunc      func(params domain.UpdateOrderStatusParams) error
	deleteFunc      func(id pgtype.UUID) error
	salesFunc       func(from, to time.Time) (*domain.SalesSummaryRow, error)

	created       []*domain.Order
	sessions      map[string]string
	deleted       []string
	statusUpdates []domain.UpdateOrderStatusParams
}

func (m *mockOrderStore) NextOrderNumber(ctx context.Context, prefix string, now time.Time) (string, error) {
	if m.nextNumberFunc != nil {
		return m.nextNumberFunc(prefix, now)
	}
	return prefix + "-2608-00001", nil
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	if m.createFunc != nil {
		if err := m.createFunc(order); err != nil {
			return err
		}
	}
	if !order.ID.Valid {
		order.ID = testUUID("11111111-1111-1111-1111-111111111111")
	}
	m.created = append(m.created, order)
	return nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id pgtype.UUID) (*domain.Order, error) {
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return nil, domain.NotFound("order.get", "order", id.String())
}

func (m *mockOrderStore) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *mockOrderStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *mockOrderStore) SetCheckoutSession(ctx context.Context, id pgtype.UUID, sessionID string) error {
	if m.sessions == nil {
		m.sessions = make(map[string]string)
	}
	m.sessions[id.String()] = sessionID
	return nil
}

func (m *mockOrderStore) MarkOrderPaid(ctx context.Context, params domain.MarkOrderPaidParams) (*domain.PaidOrderResult, error) {
	if m.markPaidFunc != nil {
		return m.markPaidFunc(params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderStore) MarkOrderExpired(ctx context.Context, id pgtype.UUID) (bool, error) {
	if m.markExpiredFunc != nil {
		return m.markExpiredFunc(id)
	}
	return false, errors.New("not implemented")
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, params domain.UpdateOrderStatusParams) error {
	m.statusUpdates = append(m.statusUpdates, params)
	if m.updateFunc != nil {
		return m.updateFunc(params)
	}
	return nil
}

func (m *mockOrderStore) DeleteOrder(ctx context.Context, id pgtype.UUID) error {
	m.deleted = append(m.deleted, id.String())
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

func (m *mockOrderStore) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummaryRow, error) {
	if m.salesFunc != nil {
		return m.salesFunc(from, to)
	}
	return nil, errors.New("not implemented")
}

// mockActivity implements ActivityRecorder and captures entries.
type mockActivity struct {
	entries []domain.ActivityEntry
}

func (m *mockActivity) Record(ctx context.Context, entry domain.ActivityEntry) {
	m.entries = append(m.entries, entry)
}

func (m *mockActivity) List(ctx context.Context, limit, offset int32) ([]domain.ActivityEntry, error) {
	return m.entries, nil
}

// mockNotifier implements email.Notifier and captures sends.
type mockNotifier struct {
	confirmations []email.OrderConfirmationEmail
	statusUpdates []email.OrderStatusUpdateEmail
	welcomes      []email.TeamWelcomeEmail
	err           error
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, data email.OrderConfirmationEmail) error {
	if m.err != nil {
		return m.err
	}
	m.confirmations = append(m.confirmations, data)
	return nil
}

func (m *mockNotifier) SendOrderStatusUpdate(ctx context.Context, data email.OrderStatusUpdateEmail) error {
	if m.err != nil {
		return m.err
	}
	m.statusUpdates = append(m.statusUpdates, data)
	return nil
}

func (m *mockNotifier) SendTeamWelcome(ctx context.Context, data email.TeamWelcomeEmail) error {
	if m.err != nil {
		return m.err
	}
	m.welcomes = append(m.welcomes, data)
	return nil
}

// mockBilling implements billing.Provider.
type mockBilling struct {
	createFunc func(params billing.CreateCheckoutSessionParams) (*billing.CheckoutSession, error)
	sessions   []billing.CreateCheckoutSessionParams
}

func (m *mockBilling) CreateCheckoutSession(ctx context.Context, params billing.CreateCheckoutSessionParams) (*billing.CheckoutSession, error) {
	m.sessions = append(m.sessions, params)
	if m.createFunc != nil {
		return m.createFunc(params)
	}
	return &billing.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.stripe.test/cs_test_123",
	}, nil
}

func (m *mockBilling) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	return nil
}

func testUUID(value string) pgtype.UUID {
	var id pgtype.UUID
	if err := id.Scan(value); err != nil {
		panic(err)
	}
	return id
}

func testProduct(id string, priceCents int64, stock int32) *domain.Product {
	return &domain.Product{
		ID:            testUUID(id),
		Name:          "Product " + id[:8],
		SKU:           "SKU-" + id[:8],
		PriceCents:    priceCents,
		StockQuantity: stock,
		CostCents:     priceCents / 2,
		Active:        true,
	}
}
