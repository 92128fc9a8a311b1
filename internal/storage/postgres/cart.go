package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
)

// Upsert keeps the newest write: the mirror is best-effort and reconciles
// last-write-wins on updated_at.
const saveCartSQL = `INSERT INTO carts (user_id, lines, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (user_id) DO UPDATE SET lines = EXCLUDED.lines, updated_at = now()`

var _ cart.Mirror = (*CartMirror)(nil)

// CartMirror replicates session carts to the remote user record.
type CartMirror struct {
	pool *pgxpool.Pool
}

// NewCartMirror returns a CartMirror that uses the given pool.
func NewCartMirror(pool *pgxpool.Pool) *CartMirror {
	return &CartMirror{pool: pool}
}

// Save upserts the full cart for the given user.
func (m *CartMirror) Save(ctx context.Context, userID string, c cart.Cart) error {
	lines, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cart lines")
	}

	if _, err := m.pool.Exec(ctx, saveCartSQL, userID, lines); err != nil {
		return errors.Wrapf(err, "mirror cart for user %q", userID)
	}
	return nil
}
