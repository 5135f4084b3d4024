package ws

import (
	"encoding/json"
	"log"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
)

// Predicate selects which connections receive a broadcast based on their
// server-verified metadata. A nil Predicate matches every connection.
type Predicate func(Meta) bool

// Hub is the fan-out primitive: it pushes a message to every open connection
// whose metadata passes the predicate. Delivery is fire-and-forget,
// at-most-once per connection; a connection that closes between iteration and
// send, or whose buffer is full, silently misses the message.
type Hub struct {
	registry *Registry
}

// NewHub creates a Hub over the given registry.
func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Broadcast encodes msg once and offers it to every matching connection.
// It returns the number of connections the message was enqueued for.
func (h *Hub) Broadcast(msg Message, pred Predicate) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: failed to marshal %s broadcast: %v", msg.Type, err)
		return 0
	}

	sent := 0
	h.registry.Each(func(c *Client) {
		if pred != nil && !pred(c.Meta()) {
			return
		}
		if c.Enqueue(data) {
			sent++
		} else {
			log.Printf("ws: client %s dropped %s (slow consumer)", c.ID, msg.Type)
		}
	})
	return sent
}

// BroadcastNewJob pushes a new_job message to worker connections, honoring
// any per-connection job-alert criteria.
func (h *Hub) BroadcastNewJob(msg Message, region, category string) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: failed to marshal new_job broadcast: %v", err)
		return 0
	}

	sent := 0
	h.registry.Each(func(c *Client) {
		if c.Meta().Role != auth.RoleWorker {
			return
		}
		if !c.AlertCriteria().Matches(region, category) {
			return
		}
		if c.Enqueue(data) {
			sent++
		}
	})
	return sent
}

// MatchUser returns a predicate matching connections of a single user.
func MatchUser(userID string) Predicate {
	return func(m Meta) bool { return m.UserID == userID }
}

// MatchRole returns a predicate matching connections with the given role.
func MatchRole(role string) Predicate {
	return func(m Meta) bool { return m.Role == role }
}
