//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/techshop/checkout/internal/checkout/adapters/postgres"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
	"github.com/techshop/checkout/internal/database"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testpostgres.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	projectRoot := findProjectRoot(t)
	migrationsPath := filepath.Join(projectRoot, "migrations")

	if err := database.RunMigrations(connStr, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, stock int) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (name, price, stock_quantity, active)
		VALUES ('Mechanical Keyboard', 150000, $1, true)
		RETURNING id
	`, stock).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return id
}

func seedCoupon(t *testing.T, pool *pgxpool.Pool, usageLimit int) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO coupons (code, discount_kind, discount_value, min_order_amount, usage_limit, start_date, end_date, active)
		VALUES ('SAVE10', 'percentage', 10, 100000, $1, now() - interval '1 hour', now() + interval '1 hour', true)
		RETURNING id
	`, usageLimit).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}
	return id
}

func stockOf(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

func testOrder(productID int64, quantity int) (domain.Order, []domain.OrderLine) {
	order := domain.Order{
		ID:              uuid.NewString(),
		Code:            "ORD20250101000000-" + uuid.NewString()[:6],
		Status:          domain.StatusPending,
		TotalAmount:     decimal.NewFromInt(300000),
		DiscountAmount:  decimal.Zero,
		ShippingFee:     decimal.NewFromInt(30000),
		FinalAmount:     decimal.NewFromInt(330000),
		PaymentMethod:   "cod",
		PaymentStatus:   domain.PaymentStatusUnpaid,
		CustomerName:    "Nguyen Van A",
		CustomerPhone:   "0900000001",
		ShippingAddress: "1 Le Loi, District 1",
		OrderedAt:       time.Now().UTC(),
	}
	lines := []domain.OrderLine{{
		OrderID:     order.ID,
		ProductID:   productID,
		ProductName: "Mechanical Keyboard",
		Quantity:    quantity,
		UnitPrice:   decimal.NewFromInt(150000),
		TotalPrice:  decimal.NewFromInt(150000).Mul(decimal.NewFromInt(int64(quantity))),
	}}
	return order, lines
}

func TestStorePlaceOrder(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedProduct(t, pool, 10)
	order, lines := testOrder(productID, 3)

	if err := store.PlaceOrder(ctx, order, lines, nil); err != nil {
		t.Fatalf("place order: %v", err)
	}

	if got := stockOf(t, pool, productID); got != 7 {
		t.Errorf("expected stock 7, got %d", got)
	}

	fetched, err := store.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if fetched.Code != order.Code {
		t.Errorf("expected code %s, got %s", order.Code, fetched.Code)
	}
	if !fetched.FinalAmount.Equal(order.FinalAmount) {
		t.Errorf("expected final amount %s, got %s", order.FinalAmount, fetched.FinalAmount)
	}

	fetchedLines, err := store.GetLines(ctx, order.ID)
	if err != nil {
		t.Fatalf("get lines: %v", err)
	}
	if len(fetchedLines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(fetchedLines))
	}
}

func TestStorePlaceOrderInsufficientStockRollsBack(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedProduct(t, pool, 2)
	order, lines := testOrder(productID, 3)

	err := store.PlaceOrder(ctx, order, lines, nil)

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 2 {
		t.Errorf("expected available 2, got %d", stockErr.Available)
	}

	if got := stockOf(t, pool, productID); got != 2 {
		t.Errorf("expected stock untouched at 2, got %d", got)
	}
	if _, err := store.GetByID(ctx, order.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected order row rolled back, got %v", err)
	}
}

func TestStoreRedeemsCouponAtMostLimit(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedProduct(t, pool, 100)
	couponID := seedCoupon(t, pool, 1)

	first, firstLines := testOrder(productID, 1)
	if err := store.PlaceOrder(ctx, first, firstLines, &couponID); err != nil {
		t.Fatalf("first redemption: %v", err)
	}

	second, secondLines := testOrder(productID, 1)
	err := store.PlaceOrder(ctx, second, secondLines, &couponID)
	if !errors.Is(err, domain.ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted, got %v", err)
	}

	// The exhausted attempt must roll its stock decrement back too.
	if got := stockOf(t, pool, productID); got != 99 {
		t.Errorf("expected stock 99, got %d", got)
	}

	var usages int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM coupon_usage WHERE coupon_id = $1`, couponID).Scan(&usages); err != nil {
		t.Fatalf("count usages: %v", err)
	}
	if usages != 1 {
		t.Errorf("expected 1 usage record, got %d", usages)
	}
}

func TestStoreCancelRestoresStockOnce(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedProduct(t, pool, 10)
	order, lines := testOrder(productID, 4)
	if err := store.PlaceOrder(ctx, order, lines, nil); err != nil {
		t.Fatalf("place order: %v", err)
	}

	allowed := []domain.OrderStatus{domain.StatusPending}

	cancelled, err := store.Cancel(ctx, order.ID, "changed my mind", allowed)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("expected cancelled_at to be stamped")
	}
	if got := stockOf(t, pool, productID); got != 10 {
		t.Errorf("expected stock restored to 10, got %d", got)
	}

	_, err = store.Cancel(ctx, order.ID, "again", allowed)
	var cancelErr *domain.NotCancellableError
	if !errors.As(err, &cancelErr) {
		t.Fatalf("expected NotCancellableError on repeat, got %v", err)
	}
	if got := stockOf(t, pool, productID); got != 10 {
		t.Errorf("repeat cancel must not restore again, got %d", got)
	}
}

func TestStoreCancelMissingOrder(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)

	_, err := store.Cancel(context.Background(), uuid.NewString(), "", []domain.OrderStatus{domain.StatusPending})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreListAndAdvance(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedProduct(t, pool, 100)

	for i := 0; i < 3; i++ {
		order, lines := testOrder(productID, 1)
		if err := store.PlaceOrder(ctx, order, lines, nil); err != nil {
			t.Fatalf("place order %d: %v", i, err)
		}
	}

	pending := domain.StatusPending
	orders, err := store.List(ctx, ports.ListFilter{Status: &pending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 pending orders, got %d", len(orders))
	}

	advanced, err := store.AdvanceStatus(ctx, orders[0].ID, domain.StatusConfirmed)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.Status != domain.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", advanced.Status)
	}

	if _, err := store.AdvanceStatus(ctx, orders[0].ID, domain.StatusDelivered); !errors.Is(err, ports.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for skipped step, got %v", err)
	}

	shipped, err := store.AdvanceStatus(ctx, orders[0].ID, domain.StatusShipped)
	if err != nil {
		t.Fatalf("advance to shipped: %v", err)
	}
	if shipped.ShippedAt == nil {
		t.Error("expected shipped_at to be stamped")
	}
}

func TestCatalogAndCoupons(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, pool, 5)
	seedCoupon(t, pool, 10)

	catalog := postgres.NewCatalog(pool)
	product, err := catalog.GetProduct(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQuantity != 5 {
		t.Errorf("expected stock 5, got %d", product.StockQuantity)
	}

	if _, err := catalog.GetProduct(ctx, 999999); !errors.Is(err, ports.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}

	coupons := postgres.NewCouponRepository(pool)
	coupon, err := coupons.GetByCode(ctx, "save10")
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if coupon.Code != "SAVE10" {
		t.Errorf("expected SAVE10, got %s", coupon.Code)
	}
	if coupon.Discount.Kind != domain.DiscountPercentage {
		t.Errorf("expected percentage kind, got %s", coupon.Discount.Kind)
	}

	if _, err := coupons.GetByCode(ctx, "NOPE"); !errors.Is(err, domain.ErrCouponNotFound) {
		t.Errorf("expected ErrCouponNotFound, got %v", err)
	}
}
