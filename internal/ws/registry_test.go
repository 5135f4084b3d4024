package ws

import (
	"testing"
)

func newTestClient(r *Registry, userID, role string) *Client {
	return &Client{
		ID:       "client-" + userID + "-" + role,
		meta:     Meta{UserID: userID, Role: role},
		send:     make(chan []byte, 4),
		registry: r,
	}
}

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(r, "1", "worker")

	r.Register(c)
	if r.Len() != 1 {
		t.Fatalf("expected 1 client, got %d", r.Len())
	}

	r.Unregister(c)
	if r.Len() != 0 {
		t.Fatalf("expected 0 clients, got %d", r.Len())
	}

	// The send channel must be closed so the write pump exits.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	default:
		t.Fatal("expected send channel to be closed, but receive would block")
	}
}

func TestRegistryUnregisterTwice(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(r, "1", "worker")

	r.Register(c)
	r.Unregister(c)
	r.Unregister(c) // must not panic on double close
}

func TestRegistryNoDeliveryAfterUnregister(t *testing.T) {
	r := NewRegistry()
	h := NewHub(r)
	c := newTestClient(r, "1", "worker")

	r.Register(c)
	r.Unregister(c)

	msg, err := NewMessage(TypeStats, map[string]int{"jobs": 3})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if sent := h.Broadcast(msg, nil); sent != 0 {
		t.Errorf("expected 0 deliveries after unregister, got %d", sent)
	}
}

func TestRegistryShutdown(t *testing.T) {
	r := NewRegistry()
	a := newTestClient(r, "1", "worker")
	b := newTestClient(r, "2", "employer")
	r.Register(a)
	r.Register(b)

	r.Shutdown()

	if r.Len() != 0 {
		t.Fatalf("expected empty registry after shutdown, got %d", r.Len())
	}
	for _, c := range []*Client{a, b} {
		if _, ok := <-c.send; ok {
			t.Errorf("client %s send channel should be closed", c.ID)
		}
	}

	// Registration after shutdown is rejected and the client closed.
	late := newTestClient(r, "3", "worker")
	r.Register(late)
	if r.Len() != 0 {
		t.Error("expected registration after shutdown to be rejected")
	}
	if _, ok := <-late.send; ok {
		t.Error("late client send channel should be closed")
	}
}

func TestEnqueueFullBufferDrops(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(r, "1", "worker")
	r.Register(c)

	for i := 0; i < cap(c.send); i++ {
		if !c.Enqueue([]byte("x")) {
			t.Fatalf("enqueue %d should succeed", i)
		}
	}
	if c.Enqueue([]byte("overflow")) {
		t.Error("enqueue on full buffer should report false")
	}
}
