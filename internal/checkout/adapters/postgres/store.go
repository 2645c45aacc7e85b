package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// Store implements ports.OrderStore on Postgres. Stock reservation and coupon
// redemption use conditional UPDATE guards inside the checkout transaction,
// so concurrent checkouts racing on the same product or coupon serialize at
// the row and the losers fail cleanly instead of overselling.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const orderColumns = `
	id, code, user_id, status_id, total_amount, discount_amount, shipping_fee,
	final_amount, coupon_code, payment_method, payment_status, customer_name,
	customer_phone, customer_email, shipping_address, note, ordered_at,
	shipped_at, delivered_at, cancelled_at, cancel_reason
`

// PlaceOrder commits the order, its lines, the stock decrements, and the
// coupon redemption as one transaction.
func (s *Store) PlaceOrder(ctx context.Context, order domain.Order, lines []domain.OrderLine, couponID *int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, line := range lines {
		if err := reserveStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}

	for _, line := range lines {
		if err := insertOrderLine(ctx, tx, line); err != nil {
			return err
		}
	}

	if couponID != nil {
		if err := redeemCoupon(ctx, tx, *couponID, order); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout transaction: %w", err)
	}

	return nil
}

// reserveStock atomically checks and decrements stock. The WHERE guard is the
// overselling defense: the read, compare, and write happen in one statement.
func reserveStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2
	`

	result, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}

	if result.RowsAffected() == 0 {
		// Available is advisory: concurrent commits may have moved stock
		// between the failed guard and this read.
		var available int
		err := tx.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ports.ErrProductNotFound
			}
			return fmt.Errorf("read stock for product %d: %w", productID, err)
		}
		return &domain.InsufficientStockError{
			ProductID: productID,
			Available: available,
			Requested: quantity,
		}
	}

	return nil
}

// redeemCoupon consumes one coupon use with the same conditional-update
// discipline as stock, and records the usage for auditing.
func redeemCoupon(ctx context.Context, tx pgx.Tx, couponID int64, order domain.Order) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("redeem coupon %d: %w", couponID, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCouponExhausted
	}

	usage := `
		INSERT INTO coupon_usage (coupon_id, order_id, user_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, usage, couponID, order.ID, order.UserID, order.DiscountAmount, order.OrderedAt)
	if err != nil {
		return fmt.Errorf("record coupon usage: %w", err)
	}

	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, order domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.Code,
		order.UserID,
		int(order.Status),
		order.TotalAmount,
		order.DiscountAmount,
		order.ShippingFee,
		order.FinalAmount,
		order.CouponCode,
		order.PaymentMethod,
		order.PaymentStatus,
		order.CustomerName,
		order.CustomerPhone,
		order.CustomerEmail,
		order.ShippingAddress,
		order.Note,
		order.OrderedAt,
		order.ShippedAt,
		order.DeliveredAt,
		order.CancelledAt,
		order.CancelReason,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func insertOrderLine(ctx context.Context, tx pgx.Tx, line domain.OrderLine) error {
	query := `
		INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		line.OrderID,
		line.ProductID,
		line.ProductName,
		line.Quantity,
		line.UnitPrice,
		line.TotalPrice,
	)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}

	return nil
}

// Cancel flips the order to cancelled and restores stock in one transaction.
// The conditional status update makes cancellation idempotent: a concurrent
// or repeated cancel sees zero rows affected and stock is credited exactly
// once.
func (s *Store) Cancel(ctx context.Context, orderID, reason string, allowed []domain.OrderStatus) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	allowedIDs := make([]int, len(allowed))
	for i, status := range allowed {
		allowedIDs[i] = int(status)
	}

	query := `
		UPDATE orders
		SET status_id = $2, cancelled_at = $3, cancel_reason = $4
		WHERE id = $1 AND status_id = ANY($5)
	`

	cancelledAt := time.Now().UTC()
	result, err := tx.Exec(ctx, query, orderID, int(domain.StatusCancelled), cancelledAt, reason, allowedIDs)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if result.RowsAffected() == 0 {
		var statusID int
		err := tx.QueryRow(ctx, `SELECT status_id FROM orders WHERE id = $1`, orderID).Scan(&statusID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ports.ErrNotFound
			}
			return nil, fmt.Errorf("read order status: %w", err)
		}
		return nil, &domain.NotCancellableError{Status: domain.OrderStatus(statusID)}
	}

	restore := `
		UPDATE products
		SET stock_quantity = stock_quantity + ol.quantity
		FROM order_lines ol
		WHERE ol.order_id = $1 AND products.id = ol.product_id
	`
	if _, err := tx.Exec(ctx, restore, orderID); err != nil {
		return nil, fmt.Errorf("restore stock: %w", err)
	}

	order, err := getOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel transaction: %w", err)
	}

	return order, nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getOrder(ctx context.Context, q queryer, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order domain.Order
	var statusID int
	err := q.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.Code,
		&order.UserID,
		&statusID,
		&order.TotalAmount,
		&order.DiscountAmount,
		&order.ShippingFee,
		&order.FinalAmount,
		&order.CouponCode,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerEmail,
		&order.ShippingAddress,
		&order.Note,
		&order.OrderedAt,
		&order.ShippedAt,
		&order.DeliveredAt,
		&order.CancelledAt,
		&order.CancelReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(statusID)

	return &order, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, s.pool, id)
}

func (s *Store) GetLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	query := `
		SELECT order_id, product_id, product_name, quantity, unit_price, total_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY product_id
	`

	rows, err := s.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

func (s *Store) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::int IS NULL OR status_id = $1)
		ORDER BY ordered_at DESC
		LIMIT $2 OFFSET $3
	`

	var statusFilter *int
	if filter.Status != nil {
		id := int(*filter.Status)
		statusFilter = &id
	}

	offset := (page - 1) * pageSize

	rows, err := s.pool.Query(ctx, query, statusFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var statusID int
		if err := rows.Scan(
			&order.ID,
			&order.Code,
			&order.UserID,
			&statusID,
			&order.TotalAmount,
			&order.DiscountAmount,
			&order.ShippingFee,
			&order.FinalAmount,
			&order.CouponCode,
			&order.PaymentMethod,
			&order.PaymentStatus,
			&order.CustomerName,
			&order.CustomerPhone,
			&order.CustomerEmail,
			&order.ShippingAddress,
			&order.Note,
			&order.OrderedAt,
			&order.ShippedAt,
			&order.DeliveredAt,
			&order.CancelledAt,
			&order.CancelReason,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Status = domain.OrderStatus(statusID)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// AdvanceStatus moves the order forward, guarding the transition in SQL so a
// concurrent advance cannot skip a step.
func (s *Store) AdvanceStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(next) {
		return nil, ports.ErrInvalidTransition
	}

	now := time.Now().UTC()
	var shippedAt, deliveredAt *time.Time
	if next == domain.StatusShipped {
		shippedAt = &now
	}
	if next == domain.StatusDelivered {
		deliveredAt = &now
	}

	query := `
		UPDATE orders
		SET status_id = $2,
		    shipped_at = COALESCE($3, shipped_at),
		    delivered_at = COALESCE($4, delivered_at)
		WHERE id = $1 AND status_id = $5
	`

	result, err := s.pool.Exec(ctx, query, id, int(next), shippedAt, deliveredAt, int(current.Status))
	if err != nil {
		return nil, fmt.Errorf("advance order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ports.ErrInvalidTransition
	}

	return s.GetByID(ctx, id)
}
