package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// Hand-rolled test doubles, mutex-guarded so the concurrency tests
// can hammer them.

type mockCartRepo struct {
	mu    sync.Mutex
	carts map[string][]domain.CartItem
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string][]domain.CartItem)}
}

func (m *mockCartRepo) Get(_ context.Context, customerID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.CartItem, len(m.carts[customerID]))
	copy(items, m.carts[customerID])
	return &domain.Cart{CustomerID: customerID, Items: items}, nil
}

func (m *mockCartRepo) UpsertItem(_ context.Context, customerID, skuID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.carts[customerID] {
		if it.SKUID == skuID {
			m.carts[customerID][i].Quantity += quantity
			return nil
		}
	}
	m.carts[customerID] = append(m.carts[customerID], domain.CartItem{SKUID: skuID, Quantity: quantity})
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, customerID, skuID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[customerID]
	for i, it := range items {
		if it.SKUID == skuID {
			m.carts[customerID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

type mockLedger struct {
	mu       sync.Mutex
	skus     map[string]*domain.SKU
	restocks map[string]int
}

func newMockLedger() *mockLedger {
	return &mockLedger{skus: make(map[string]*domain.SKU), restocks: make(map[string]int)}
}

func (m *mockLedger) addSKU(id, vendorID string, priceCents int64, capacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skus[id] = &domain.SKU{ID: id, ServiceID: "svc-" + id, VendorID: vendorID, Name: id, PriceCents: priceCents, Capacity: capacity}
}

func (m *mockLedger) capacity(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skus[id].Capacity
}

func (m *mockLedger) setPrice(id string, priceCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skus[id].PriceCents = priceCents
}

func (m *mockLedger) TryDecrement(_ context.Context, skuID string, quantity int) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sku, ok := m.skus[skuID]
	if !ok {
		return false, 0, fmt.Errorf("sku %s not found", skuID)
	}
	if sku.Capacity < quantity {
		return false, sku.Capacity, nil
	}
	sku.Capacity -= quantity
	return true, sku.Capacity, nil
}

func (m *mockLedger) Restock(_ context.Context, skuID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sku, ok := m.skus[skuID]
	if !ok {
		return fmt.Errorf("sku %s not found", skuID)
	}
	sku.Capacity += quantity
	m.restocks[skuID] += quantity
	return nil
}

func (m *mockLedger) GetSKU(_ context.Context, skuID string) (*domain.SKU, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sku, ok := m.skus[skuID]
	if !ok {
		return nil, nil
	}
	cp := *sku
	return &cp, nil
}

type mockLocks struct {
	mu     sync.Mutex
	held   map[string]string
	nextID int
}

func newMockLocks() *mockLocks {
	return &mockLocks{held: make(map[string]string)}
}

func (m *mockLocks) Acquire(_ context.Context, skuID string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[skuID]; taken {
		return "", false, nil
	}
	m.nextID++
	token := fmt.Sprintf("tok-%d", m.nextID)
	m.held[skuID] = token
	return token, true, nil
}

func (m *mockLocks) Release(_ context.Context, skuID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[skuID] == token {
		delete(m.held, skuID)
	}
	return nil
}

func (m *mockLocks) heldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

// hold simulates a competing checkout owning the SKU's lease.
func (m *mockLocks) hold(skuID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[skuID] = "other-holder"
}

type mockResvRepo struct {
	mu       sync.Mutex
	byIntent map[string][]domain.Reservation
	saveErr  error
}

func newMockResvRepo() *mockResvRepo {
	return &mockResvRepo{byIntent: make(map[string][]domain.Reservation)}
}

func (m *mockResvRepo) SaveAll(_ context.Context, lines []domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, r := range lines {
		m.byIntent[r.PaymentIntentID] = append(m.byIntent[r.PaymentIntentID], r)
	}
	return nil
}

func (m *mockResvRepo) ListByIntent(_ context.Context, intentID string) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Reservation, len(m.byIntent[intentID]))
	copy(out, m.byIntent[intentID])
	return out, nil
}

type mockGateway struct {
	mu        sync.Mutex
	createErr error
	verifyErr error
	created   int
}

func (m *mockGateway) CreateIntent(_ context.Context, amountCents int64, currency, customerID string, _ []domain.Reservation) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created++
	return &domain.PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", m.created),
		ClientSecret: fmt.Sprintf("cs_test_%d", m.created),
		AmountCents:  amountCents,
		Currency:     currency,
		CustomerID:   customerID,
	}, nil
}

func (m *mockGateway) VerifySignature([]byte, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyErr
}

type mockOrderRepo struct {
	mu           sync.Mutex
	byIntent     map[string][]domain.Order
	byExternalID map[string]*domain.Order
	cartCleared  map[string]int
	nextID       int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		byIntent:     make(map[string][]domain.Order),
		byExternalID: make(map[string]*domain.Order),
		cartCleared:  make(map[string]int),
	}
}

func (m *mockOrderRepo) SettleIntent(_ context.Context, customerID, intentID string, lines []domain.Reservation) ([]domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, done := m.byIntent[intentID]; done {
		return nil, false, nil
	}
	created := make([]domain.Order, 0, len(lines))
	for _, r := range lines {
		m.nextID++
		o := domain.Order{
			ID:              m.nextID,
			ExternalID:      fmt.Sprintf("ord-%d", m.nextID),
			CustomerID:      customerID,
			VendorID:        r.VendorID,
			SKUID:           r.SKUID,
			Quantity:        r.Quantity,
			Status:          domain.OrderStatusPaid,
			TotalCents:      r.LineTotalCents(),
			PaymentIntentID: intentID,
		}
		created = append(created, o)
		cp := o
		m.byExternalID[o.ExternalID] = &cp
	}
	m.byIntent[intentID] = created
	m.cartCleared[customerID]++
	return created, true, nil
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.byExternalID {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetByExternalID(_ context.Context, externalID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byExternalID[externalID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, externalID string, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byExternalID[externalID]
	if !ok || o.Status != from {
		return fmt.Errorf("stale order status")
	}
	o.Status = to
	return nil
}

func (m *mockOrderRepo) ordersForIntent(intentID string) []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byIntent[intentID]
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.Order
}

func (m *mockPublisher) OrderPaid(o domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, o)
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}
