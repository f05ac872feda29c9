package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/booking-market/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/bookmarket?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func seedSKU(t *testing.T, db *sql.DB, id string, priceCents int64, capacity int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO skus (id, service_id, vendor_id, name, price_cents, capacity, estimated_minutes, created_at, updated_at)
		VALUES (?, 'svc-test', 'vendor-test', ?, ?, ?, 30, NOW(), NOW())
		ON DUPLICATE KEY UPDATE price_cents = VALUES(price_cents), capacity = VALUES(capacity)`,
		id, id, priceCents, capacity)
	if err != nil {
		t.Fatalf("seed sku: %v", err)
	}
}

func TestTryDecrement_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedSKU(t, db, "test-sku", 1000, 10)

	ok, remaining, err := adapter.TryDecrement(ctx, "test-sku", 3)
	if err != nil {
		t.Fatalf("TryDecrement failed: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to succeed")
	}
	if remaining != 7 {
		t.Errorf("expected remaining 7, got %d", remaining)
	}

	var capacity int
	db.QueryRowContext(ctx, `SELECT capacity FROM skus WHERE id = 'test-sku'`).Scan(&capacity)
	if capacity != 7 {
		t.Errorf("expected persisted capacity 7, got %d", capacity)
	}
}

func TestTryDecrement_Insufficient(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedSKU(t, db, "empty-sku", 1000, 2)

	ok, remaining, err := adapter.TryDecrement(ctx, "empty-sku", 5)
	if err != nil {
		t.Fatalf("TryDecrement failed: %v", err)
	}
	if ok {
		t.Error("expected failure for insufficient capacity")
	}
	if remaining != 2 {
		t.Errorf("capacity must be untouched, got remaining %d", remaining)
	}
}

func TestRestock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedSKU(t, db, "restock-sku", 1000, 5)

	if ok, _, _ := adapter.TryDecrement(ctx, "restock-sku", 2); !ok {
		t.Fatal("setup decrement failed")
	}
	if err := adapter.Restock(ctx, "restock-sku", 2); err != nil {
		t.Fatalf("Restock failed: %v", err)
	}

	sku, err := adapter.GetSKU(ctx, "restock-sku")
	if err != nil {
		t.Fatalf("GetSKU failed: %v", err)
	}
	if sku.Capacity != 5 {
		t.Errorf("expected capacity restored to 5, got %d", sku.Capacity)
	}
}

func TestGetSKU_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	sku, err := adapter.GetSKU(context.Background(), "no-such-sku")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sku != nil {
		t.Error("expected nil for unknown sku")
	}
}

func TestSettleIntent_FirstAndDuplicate(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedSKU(t, db, "settle-sku", 1500, 10)

	intentID := fmt.Sprintf("pi_test_%d", time.Now().UnixNano())
	customerID := "settle-customer"
	defer func() {
		db.ExecContext(ctx, `DELETE FROM orders WHERE payment_intent_id = ?`, intentID)
		db.ExecContext(ctx, `DELETE FROM reservations WHERE payment_intent_id = ?`, intentID)
	}()

	lines := []domain.Reservation{{
		PaymentIntentID: intentID,
		CustomerID:      customerID,
		SKUID:           "settle-sku",
		VendorID:        "vendor-test",
		Quantity:        2,
		UnitPriceCents:  1500,
	}}
	if err := adapter.SaveAll(ctx, lines); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	if err := adapter.UpsertItem(ctx, customerID, "settle-sku", 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	created, first, err := adapter.SettleIntent(ctx, customerID, intentID, lines)
	if err != nil {
		t.Fatalf("SettleIntent failed: %v", err)
	}
	if !first {
		t.Fatal("expected first settlement")
	}
	if len(created) != 1 || created[0].Status != domain.OrderStatusPaid || created[0].TotalCents != 3000 {
		t.Fatalf("unexpected order: %+v", created)
	}

	cart, err := adapter.Get(ctx, customerID)
	if err != nil {
		t.Fatalf("Get cart failed: %v", err)
	}
	if !cart.IsEmpty() {
		t.Error("cart must be empty after settlement")
	}

	// Redelivery: no new orders, no error.
	again, first, err := adapter.SettleIntent(ctx, customerID, intentID, lines)
	if err != nil {
		t.Fatalf("duplicate SettleIntent errored: %v", err)
	}
	if first || again != nil {
		t.Error("duplicate settlement must be a no-op")
	}

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE payment_intent_id = ?`, intentID).Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 order row, got %d", count)
	}
}

func TestUpdateStatus_Stale(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedSKU(t, db, "status-sku", 1000, 10)

	intentID := fmt.Sprintf("pi_status_%d", time.Now().UnixNano())
	lines := []domain.Reservation{{
		PaymentIntentID: intentID,
		CustomerID:      "status-customer",
		SKUID:           "status-sku",
		VendorID:        "vendor-test",
		Quantity:        1,
		UnitPriceCents:  1000,
	}}
	if err := adapter.SaveAll(ctx, lines); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	created, _, err := adapter.SettleIntent(ctx, "status-customer", intentID, lines)
	if err != nil || len(created) != 1 {
		t.Fatalf("setup settlement failed: %v", err)
	}
	defer func() {
		db.ExecContext(ctx, `DELETE FROM orders WHERE payment_intent_id = ?`, intentID)
		db.ExecContext(ctx, `DELETE FROM reservations WHERE payment_intent_id = ?`, intentID)
	}()

	externalID := created[0].ExternalID
	if err := adapter.UpdateStatus(ctx, externalID, domain.OrderStatusPaid, domain.OrderStatusProcessing); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	// A writer still assuming the old status must lose.
	err = adapter.UpdateStatus(ctx, externalID, domain.OrderStatusPaid, domain.OrderStatusFailed)
	if !errors.Is(err, ErrStaleStatus) {
		t.Errorf("expected ErrStaleStatus, got %v", err)
	}

	order, err := adapter.GetByExternalID(ctx, externalID)
	if err != nil {
		t.Fatalf("GetByExternalID failed: %v", err)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Errorf("expected processing, got %s", order.Status)
	}
}

func TestCartUpsert_SumsQuantities(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedSKU(t, db, "cart-sku", 1000, 10)

	customerID := fmt.Sprintf("cart-customer-%d", time.Now().UnixNano())
	defer db.ExecContext(ctx, `DELETE FROM cart_items WHERE customer_id = ?`, customerID)

	if err := adapter.UpsertItem(ctx, customerID, "cart-sku", 1); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := adapter.UpsertItem(ctx, customerID, "cart-sku", 2); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	cart, err := adapter.Get(ctx, customerID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Errorf("expected single line with quantity 3, got %+v", cart.Items)
	}
}
