package service

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/nextbyte/storefront/internal/core/cart"
	"github.com/nextbyte/storefront/internal/metrics"
	"github.com/nextbyte/storefront/internal/port"
)

// Session bundles the per-device cart with its checkout state machine.
// Each device holds exactly one session; carts are never shared.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *CheckoutService
}

// SessionManager owns the live sessions of this process. Cart snapshots
// are written through to the cache so a session survives a restart.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	codes map[string]int
	cache port.CartCache
	repo  port.OrderRepository
}

// NewSessionManager builds a registry using the given discount table.
// cache may be nil, in which case carts are purely in-memory.
func NewSessionManager(codes map[string]int, cache port.CartCache, repo port.OrderRepository) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		codes:    codes,
		cache:    cache,
		repo:     repo,
	}
}

// Session returns the session for the given id, creating it on first use.
// A newly created session restores its cart from the cache when a
// snapshot is present.
func (m *SessionManager) Session(ctx context.Context, sessionID string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sessionID]; ok {
		return sess
	}

	sess = &Session{
		ID:       sessionID,
		Cart:     cart.NewStore(m.codes),
		Checkout: NewCheckoutService(m.repo),
	}

	if m.cache != nil {
		snapshot, err := m.cache.LoadCart(ctx, sessionID)
		if err != nil {
			log.WithField("session_id", sessionID).WithError(err).Warn("cart restore failed")
		} else if snapshot != nil {
			sess.Cart.Restore(*snapshot)
		}
	}

	m.sessions[sessionID] = sess
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return sess
}

// Persist writes the current cart snapshot of a session through to the
// cache. A cache failure is logged, not surfaced; the in-memory cart
// stays authoritative for the session.
func (m *SessionManager) Persist(ctx context.Context, sessionID string) {
	if m.cache == nil {
		return
	}

	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	if err := m.cache.SaveCart(ctx, sessionID, sess.Cart.Snapshot()); err != nil {
		log.WithField("session_id", sessionID).WithError(err).Warn("cart persist failed")
	}
}

// ClearCart empties a session's cart and drops the cached snapshot.
// Called after a successful checkout has been consumed.
func (m *SessionManager) ClearCart(ctx context.Context, sessionID string) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	sess.Cart.Clear()
	if m.cache != nil {
		if err := m.cache.DeleteCart(ctx, sessionID); err != nil {
			log.WithField("session_id", sessionID).WithError(err).Warn("cached cart delete failed")
		}
	}
}

// Idempotency records a checkout request id, returning false when the
// same id was already seen. Without a cache every request is fresh.
func (m *SessionManager) Idempotency(ctx context.Context, requestID string) (bool, error) {
	if m.cache == nil {
		return true, nil
	}
	return m.cache.SetIdempotency(ctx, "checkout:"+requestID)
}
