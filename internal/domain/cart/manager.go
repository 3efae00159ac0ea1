package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager hands out one Store per cart ID, hydrating each cart from storage
// the first time it is touched in this process. Stores are cached for the
// process lifetime; the persisted blobs remain the source of truth across
// restarts.
type Manager struct {
	storage Storage
	lg      *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a Manager over the given storage.
func NewManager(storage Storage, lg *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage: storage,
		lg:      lg,
		now:     time.Now,
		stores:  make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerClock overrides the clock handed to each Store.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// Get returns the store for the given cart ID, hydrating it on first touch.
func (m *Manager) Get(ctx context.Context, cartID string) (*Store, error) {
	m.mu.Lock()
	if s, ok := m.stores[cartID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Hydrate outside the manager lock; a racing first touch just hydrates
	// twice and the second result wins below.
	s := NewStore(cartID, m.storage, m.lg.With(zap.String("cart_id", cartID)),
		WithClock(m.now))
	if err := s.Hydrate(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.stores[cartID]; ok {
		return existing, nil
	}
	m.stores[cartID] = s
	return s, nil
}

// Evict drops a cached store, forcing re-hydration on next access. Used after
// a cart is cleared server-side or expires.
func (m *Manager) Evict(cartID string) {
	m.mu.Lock()
	delete(m.stores, cartID)
	m.mu.Unlock()
}
