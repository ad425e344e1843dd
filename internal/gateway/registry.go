package gateway

import (
	"sync"
	"time"
)

// connection is the registry's record of one live transport session.
type connection struct {
	id          string
	identity    Identity
	connectedAt time.Time
}

// Registry maintains the live mapping from user ID to the set of active
// connection IDs. It is the only component that mutates this mapping;
// connection handlers and business callers go through Register/Unregister.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*connection
	byUser map[uint][]string // ordered, duplicate-free
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*connection),
		byUser: make(map[uint][]string),
	}
}

// Register records connID under the identity's user. Repeated calls with the
// same connID are a no-op; a connection ID lives under at most one user.
func (r *Registry) Register(identity Identity, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[connID]; exists {
		return
	}
	r.byConn[connID] = &connection{
		id:          connID,
		identity:    identity,
		connectedAt: time.Now(),
	}
	r.byUser[identity.UserID] = append(r.byUser[identity.UserID], connID)
}

// Unregister removes connID from whichever user owns it. Unknown connection
// IDs are silently tolerated: a disconnect racing a failed handshake must not
// error. Returns true if a connection was actually removed.
func (r *Registry) Unregister(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.byConn[connID]
	if !exists {
		return false
	}
	delete(r.byConn, connID)

	userID := conn.identity.UserID
	ids := r.byUser[userID]
	for i, id := range ids {
		if id == connID {
			r.byUser[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byUser[userID]) == 0 {
		delete(r.byUser, userID)
	}
	return true
}

// ConnectionsFor returns the connection IDs currently registered for userID,
// in registration order. The returned slice is a copy; it is empty, never
// nil-vs-error, for offline users.
func (r *Registry) ConnectionsFor(userID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// IsUserConnected reports whether userID has at least one live connection.
func (r *Registry) IsUserConnected(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// IdentityOf returns the identity bound to connID at handshake time.
func (r *Registry) IdentityOf(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.byConn[connID]
	if !exists {
		return Identity{}, false
	}
	return conn.identity, true
}

// Len returns the total number of live connections across all users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
