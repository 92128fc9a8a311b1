// Package local implements the durable local cart store on Pebble. It is
// the device-storage half of the write-through cart persistence: writes are
// synchronous and authoritative for the session, surviving process restarts.
package local

import (
	"encoding/json"

	"github.com/cockroachdb/pebble"
	"github.com/go-faster/errors"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
)

const cartKeyPrefix = "cart/"

var _ cart.LocalStore = (*CartStore)(nil)

// CartStore persists one cart per session ID in a Pebble database.
type CartStore struct {
	db *pebble.DB
}

// Open opens (or creates) the cart store at path.
func Open(path string) (*CartStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open cart store")
	}
	return &CartStore{db: db}, nil
}

// Load reads the cart persisted for sessionID. The second return value is
// false when no cart has been saved under that ID.
func (s *CartStore) Load(sessionID string) (cart.Cart, bool, error) {
	val, closer, err := s.db.Get([]byte(cartKeyPrefix + sessionID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "read cart")
	}
	defer func() { _ = closer.Close() }()

	var c cart.Cart
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, false, errors.Wrap(err, "decode cart")
	}
	return c, true, nil
}

// Save writes the cart for sessionID with a synced write, so a crash right
// after a cart mutation cannot lose it.
func (s *CartStore) Save(sessionID string, c cart.Cart) error {
	val, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.db.Set([]byte(cartKeyPrefix+sessionID), val, pebble.Sync); err != nil {
		return errors.Wrap(err, "write cart")
	}
	return nil
}

// Close closes the underlying database.
func (s *CartStore) Close() error {
	return s.db.Close()
}
