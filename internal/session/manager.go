package session

import (
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
)

// Manager hands out sessions by ID, restoring each session's cart from the
// local store on first access so carts survive process restarts.
type Manager struct {
	local cart.LocalStore

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager backed by the given local cart store.
func NewManager(local cart.LocalStore) *Manager {
	return &Manager{
		local:    local,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it if needed. A newly created
// session starts with the cart previously persisted under that ID, if any.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	s := &Session{ID: id, local: m.local}
	restored, ok, err := m.local.Load(id)
	if err != nil {
		return nil, errors.Wrap(err, "restore cart")
	}
	if ok {
		s.cart = restored
	}

	m.sessions[id] = s
	return s, nil
}
