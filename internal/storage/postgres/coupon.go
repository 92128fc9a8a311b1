package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/parfum-storefront/internal/domain/coupon"
)

const listCouponsSQL = `SELECT code, discount, expires_at FROM coupons WHERE active = TRUE ORDER BY code`

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// List returns all active coupons. Codes are stored uppercase.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (coupon.Coupon, error) {
		var (
			c         coupon.Coupon
			expiresAt *time.Time
		)
		err := row.Scan(&c.Code, &c.Discount, &expiresAt)
		c.ExpiresAt = expiresAt
		return c, err
	})
}
