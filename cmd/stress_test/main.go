package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rl1809/booking-market/internal/adapter/storage"
	"github.com/rl1809/booking-market/internal/core/domain"
	"github.com/rl1809/booking-market/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/bookmarket?parseTime=true"
	redisAddr     = "localhost:6379"
	skuID         = "stress-sku"
	capacity      = 20
	totalRequests = 50
)

// fakeGateway stands in for the payment processor so the run only
// needs MySQL and Redis.
type fakeGateway struct{}

func (fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency, customerID string, _ []domain.Reservation) (*domain.PaymentIntent, error) {
	return &domain.PaymentIntent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		AmountCents:  amountCents,
		Currency:     currency,
		CustomerID:   customerID,
	}, nil
}

func (fakeGateway) VerifySignature([]byte, string) error { return nil }

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Reset test data from previous runs.
	db.ExecContext(ctx, `DELETE FROM reservations WHERE sku_id = ?`, skuID)
	db.ExecContext(ctx, `DELETE FROM cart_items WHERE sku_id = ?`, skuID)
	if _, err := db.ExecContext(ctx, `
		INSERT INTO skus (id, service_id, vendor_id, name, price_cents, capacity, estimated_minutes, created_at, updated_at)
		VALUES (?, 'svc-stress', 'vendor-stress', 'Stress SKU', 1500, ?, 60, NOW(), NOW())
		ON DUPLICATE KEY UPDATE capacity = ?`, skuID, capacity, capacity); err != nil {
		log.Fatalf("failed to seed sku: %v", err)
	}
	rdb.Del(ctx, "resv:lock:"+skuID)

	store := storage.NewMySQLAdapter(db)
	locks := storage.NewRedisAdapter(rdb)
	checkout := service.NewCheckoutService(store, store, locks, store, fakeGateway{}, zerolog.Nop(), 10*time.Second, "usd")

	// One pre-filled cart per simulated customer.
	for i := 0; i < totalRequests; i++ {
		if err := store.UpsertItem(ctx, fmt.Sprintf("user-%d", i), skuID, 1); err != nil {
			log.Fatalf("failed to seed cart: %v", err)
		}
	}

	var successCount, soldOutCount, contendedCount, otherCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := checkout.Checkout(ctx, fmt.Sprintf("user-%d", userID))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrInsufficientStock):
				soldOutCount.Add(1)
			case errors.Is(err, service.ErrLockContention):
				contendedCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Capacity:         %d\n", capacity)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Sold Out:         %d\n", soldOutCount.Load())
	fmt.Printf("Contended:        %d\n", contendedCount.Load())
	fmt.Printf("Other Failures:   %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if int(successCount.Load()) <= capacity && otherCount.Load() == 0 {
		fmt.Printf("PASS: successes (%d) never exceeded capacity (%d)\n", successCount.Load(), capacity)
	} else {
		fmt.Printf("FAIL: %d successes for capacity %d, %d unexpected errors\n",
			successCount.Load(), capacity, otherCount.Load())
	}

	var remaining int
	db.QueryRowContext(ctx, `SELECT capacity FROM skus WHERE id = ?`, skuID).Scan(&remaining)
	fmt.Printf("Final Capacity:   %d\n", remaining)
	if remaining == capacity-int(successCount.Load()) {
		fmt.Println("PASS: ledger matches successful reservations")
	} else {
		fmt.Printf("FAIL: expected capacity %d, got %d\n", capacity-int(successCount.Load()), remaining)
	}
}
