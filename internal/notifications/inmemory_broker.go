package notifications

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InMemoryBroker is a single-process MessageBroker. Events are delivered
// asynchronously by a goroutine per publish, so a handler that blocks (a slow
// database insert on the consumer side) never stalls the publishing HTTP
// handler.
type InMemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[string]EventHandler // topic -> subscription id -> handler
	closed bool
	wg     sync.WaitGroup
}

// NewInMemoryBroker creates an InMemoryBroker. Call Close() to wait for
// in-flight deliveries and reject further use.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs: make(map[string]map[string]EventHandler),
	}
}

// Publish delivers an event to all current subscribers of the topic. Delivery
// happens on a separate goroutine; Publish itself never blocks on handlers.
func (b *InMemoryBroker) Publish(topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	// Snapshot the handlers so a Subscribe during delivery cannot race the map.
	handlers := make([]EventHandler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for _, h := range handlers {
			h(event)
		}
	}()
	return nil
}

// Subscribe registers a handler for the given topic and returns a subscription
// ID usable with Unsubscribe.
func (b *InMemoryBroker) Subscribe(topic string, handler EventHandler) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", fmt.Errorf("broker is closed")
	}

	id := uuid.New().String()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]EventHandler)
	}
	b.subs[topic][id] = handler
	return id, nil
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *InMemoryBroker) Unsubscribe(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[topic], id)
}

// Close rejects further Publish/Subscribe calls and waits for in-flight
// deliveries to finish.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
