package ws

import (
	"log"
	"sync"
)

// Registry tracks the currently open connections. It is owned by the
// composition root and injected into everything that fans out messages; there
// is no package-level instance. It is safe for concurrent use.
//
// Invariant: a client is present iff its socket is open. Unregister is called
// from both the close and the error path of the read pump, so entries cannot
// leak as long as the transport fires one of those.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewRegistry allocates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[*Client]struct{})}
}

// Register adds a client. Registering on a shut-down registry closes the
// client immediately.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		c.closeSend()
		return
	}
	r.clients[c] = struct{}{}
	r.mu.Unlock()
	log.Printf("ws: client %s registered (user=%s role=%s)", c.ID, c.meta.UserID, c.meta.Role)
}

// Unregister removes a client and closes its send channel. Safe to call more
// than once; only the first call for a given client closes the channel.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	_, ok := r.clients[c]
	if ok {
		delete(r.clients, c)
	}
	r.mu.Unlock()

	if ok {
		c.closeSend()
		log.Printf("ws: client %s unregistered", c.ID)
	}
}

// Each calls fn for every registered client. The send channel of a visited
// client cannot be closed concurrently: closing happens only in Unregister
// under the write lock, while Each holds the read lock.
func (r *Registry) Each(fn func(*Client)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		fn(c)
	}
}

// Len returns the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Shutdown closes every connection and clears the map. Further Register calls
// are rejected. Intended for process shutdown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[*Client]struct{})
	r.closed = true
	r.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}
	if len(clients) > 0 {
		log.Printf("ws: registry shut down, closed %d connections", len(clients))
	}
}
