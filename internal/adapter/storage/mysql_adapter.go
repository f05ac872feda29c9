package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// ErrStaleStatus: the order's status changed between read and write.
var ErrStaleStatus = errors.New("stale order status")

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// --- stock ledger ---

// TryDecrement runs the capacity check and the decrement as one
// conditional UPDATE, so two transactions racing on the same SKU row
// serialize on the row lock and at most one of them wins the last
// unit. No mutation happens when capacity < quantity.
func (m *MySQLAdapter) TryDecrement(ctx context.Context, skuID string, quantity int) (bool, int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE skus
		SET capacity = capacity - ?, updated_at = NOW()
		WHERE id = ? AND capacity >= ?`,
		quantity, skuID, quantity,
	)
	if err != nil {
		return false, 0, fmt.Errorf("decrement capacity: %w", err)
	}
	rows, _ := result.RowsAffected()

	var remaining int
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM skus WHERE id = ?`, skuID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, fmt.Errorf("sku %s not found", skuID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("read capacity: %w", err)
	}

	if rows == 0 {
		return false, remaining, nil // rollback via defer, nothing written
	}
	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit decrement: %w", err)
	}
	return true, remaining, nil
}

func (m *MySQLAdapter) Restock(ctx context.Context, skuID string, quantity int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE skus
		SET capacity = capacity + ?, updated_at = NOW()
		WHERE id = ?`,
		quantity, skuID,
	)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("restock: sku %s not found", skuID)
	}
	return nil
}

func (m *MySQLAdapter) GetSKU(ctx context.Context, skuID string) (*domain.SKU, error) {
	var s domain.SKU
	err := m.db.QueryRowContext(ctx, `
		SELECT id, service_id, vendor_id, name, price_cents, capacity, estimated_minutes, created_at, updated_at
		FROM skus WHERE id = ?`, skuID,
	).Scan(&s.ID, &s.ServiceID, &s.VendorID, &s.Name, &s.PriceCents, &s.Capacity, &s.EstimatedMinutes, &s.CreatedAt, &s.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sku: %w", err)
	}
	return &s, nil
}

// --- reservations ---

func (m *MySQLAdapter) SaveAll(ctx context.Context, lines []domain.Reservation) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reservations
				(payment_intent_id, customer_id, sku_id, vendor_id, quantity, unit_price_cents, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`,
			r.PaymentIntentID, r.CustomerID, r.SKUID, r.VendorID, r.Quantity, r.UnitPriceCents, domain.ReservationReserved,
		)
		if err != nil {
			return fmt.Errorf("insert reservation %s/%s: %w", r.PaymentIntentID, r.SKUID, err)
		}
	}
	return tx.Commit()
}

func (m *MySQLAdapter) ListByIntent(ctx context.Context, intentID string) ([]domain.Reservation, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT payment_intent_id, customer_id, sku_id, vendor_id, quantity, unit_price_cents, status, created_at
		FROM reservations WHERE payment_intent_id = ?`, intentID)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var r domain.Reservation
		if err := rows.Scan(&r.PaymentIntentID, &r.CustomerID, &r.SKUID, &r.VendorID, &r.Quantity, &r.UnitPriceCents, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- orders ---

// SettleIntent creates the paid orders for an intent, marks its
// reservation lines settled and empties the customer's cart, all in
// one transaction. The unique key on (payment_intent_id, sku_id) is
// the idempotency guard: a concurrent or repeated delivery loses the
// insert race, rolls back, and reports first=false.
func (m *MySQLAdapter) SettleIntent(ctx context.Context, customerID, intentID string, lines []domain.Reservation) ([]domain.Order, bool, error) {
	var n int
	if err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE payment_intent_id = ?`, intentID,
	).Scan(&n); err != nil {
		return nil, false, fmt.Errorf("check settled: %w", err)
	}
	if n > 0 {
		return nil, false, nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	created := make([]domain.Order, 0, len(lines))
	for _, r := range lines {
		o := domain.Order{
			ExternalID:      uuid.NewString(),
			CustomerID:      customerID,
			VendorID:        r.VendorID,
			SKUID:           r.SKUID,
			Quantity:        r.Quantity,
			Status:          domain.OrderStatusPaid,
			TotalCents:      r.LineTotalCents(),
			PaymentIntentID: intentID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO orders
				(external_id, customer_id, vendor_id, sku_id, quantity, status, total_cents, payment_intent_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ExternalID, o.CustomerID, o.VendorID, o.SKUID, o.Quantity, o.Status, o.TotalCents, o.PaymentIntentID, o.CreatedAt, o.UpdatedAt,
		)
		if isDuplicateKey(err) {
			// Lost the race to another delivery of the same intent.
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("insert order for %s: %w", r.SKUID, err)
		}
		o.ID, _ = result.LastInsertId()
		created = append(created, o)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE reservations SET status = ? WHERE payment_intent_id = ?`,
		domain.ReservationSettled, intentID,
	); err != nil {
		return nil, false, fmt.Errorf("mark reservations settled: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE customer_id = ?`, customerID,
	); err != nil {
		return nil, false, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isDuplicateKey(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("commit settlement: %w", err)
	}
	return created, true, nil
}

func (m *MySQLAdapter) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, external_id, customer_id, vendor_id, sku_id, quantity, status, total_cents, payment_intent_id, created_at, updated_at
		FROM orders WHERE customer_id = ? ORDER BY id DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.CustomerID, &o.VendorID, &o.SKUID, &o.Quantity, &o.Status, &o.TotalCents, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, external_id, customer_id, vendor_id, sku_id, quantity, status, total_cents, payment_intent_id, created_at, updated_at
		FROM orders WHERE external_id = ?`, externalID,
	).Scan(&o.ID, &o.ExternalID, &o.CustomerID, &o.VendorID, &o.SKUID, &o.Quantity, &o.Status, &o.TotalCents, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) UpdateStatus(ctx context.Context, externalID string, from, to domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE external_id = ? AND status = ?`,
		to, externalID, from,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleStatus
	}
	return nil
}

// --- cart ---

func (m *MySQLAdapter) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT sku_id, quantity FROM cart_items WHERE customer_id = ?`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{CustomerID: customerID}
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.SKUID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, it)
	}
	return cart, rows.Err()
}

func (m *MySQLAdapter) UpsertItem(ctx context.Context, customerID, skuID string, quantity int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_items (customer_id, sku_id, quantity, created_at)
		VALUES (?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		customerID, skuID, quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RemoveItem(ctx context.Context, customerID, skuID string) error {
	_, err := m.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE customer_id = ? AND sku_id = ?`, customerID, skuID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
