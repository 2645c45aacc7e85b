package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techshop/checkout/internal/checkout/domain"
)

// CouponRepository implements ports.CouponRepository. Codes are matched
// case-insensitively; inactive coupons resolve to ErrCouponNotFound so the
// caller cannot distinguish disabled from absent.
type CouponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, description, discount_kind, discount_value, max_discount_amount,
		       min_order_amount, usage_limit, used_count, start_date, end_date, active
		FROM coupons
		WHERE lower(code) = lower($1)
	`

	var coupon domain.Coupon
	var kind string
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&kind,
		&coupon.Discount.Value,
		&coupon.Discount.MaxAmount,
		&coupon.MinOrderAmount,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.StartDate,
		&coupon.EndDate,
		&coupon.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, fmt.Errorf("select coupon: %w", err)
	}
	coupon.Discount.Kind = domain.DiscountKind(kind)

	return &coupon, nil
}
