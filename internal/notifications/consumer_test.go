package notifications

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avoda-labs/jobboard/backend/internal/ws"
)

// trackingBroker records which topics were subscribed to and delivers
// published events synchronously to the matching handler.
type trackingBroker struct {
	mu       sync.Mutex
	topics   []string
	handlers map[string]EventHandler
}

func newTrackingBroker() *trackingBroker {
	return &trackingBroker{
		handlers: make(map[string]EventHandler),
	}
}

func (b *trackingBroker) Publish(topic string, event Event) error {
	b.mu.Lock()
	h, ok := b.handlers[topic]
	b.mu.Unlock()
	if ok {
		h(event)
	}
	return nil
}

func (b *trackingBroker) Subscribe(topic string, handler EventHandler) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.handlers[topic] = handler
	return "sub-" + topic, nil
}

func (b *trackingBroker) Close() error { return nil }

func (b *trackingBroker) getTopics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]string, len(b.topics))
	copy(cp, b.topics)
	return cp
}

func newTestHub() *ws.Hub {
	return ws.NewHub(ws.NewRegistry())
}

func TestConsumer_SubscribesAllTopics(t *testing.T) {
	broker := newTrackingBroker()
	consumer := NewConsumer(broker, newTestHub(), nil, nil)

	if err := consumer.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer consumer.Stop()

	topics := broker.getTopics()
	if len(topics) != len(AllTopics) {
		t.Errorf("expected %d subscriptions, got %d", len(AllTopics), len(topics))
	}

	topicSet := make(map[string]bool)
	for _, topic := range topics {
		topicSet[topic] = true
	}
	for _, expected := range AllTopics {
		if !topicSet[expected] {
			t.Errorf("missing subscription for topic %s", expected)
		}
	}
}

func TestConsumer_JobClosedRefreshesStats(t *testing.T) {
	broker := newTrackingBroker()

	var statsCalls atomic.Int32
	stats := func(ctx context.Context) (interface{}, error) {
		statsCalls.Add(1)
		return map[string]int{"jobs": 3}, nil
	}

	consumer := NewConsumer(broker, newTestHub(), nil, stats)
	if err := consumer.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer consumer.Stop()

	event := NewEvent(TopicJobClosed, "", "משרה נסגרה", "", nil, nil)
	if err := broker.Publish(TopicJobClosed, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if got := statsCalls.Load(); got != 1 {
		t.Errorf("expected 1 stats refresh, got %d", got)
	}
}

func TestConsumer_NilStatsFnSkipsRefresh(t *testing.T) {
	broker := newTrackingBroker()
	consumer := NewConsumer(broker, newTestHub(), nil, nil)
	if err := consumer.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer consumer.Stop()

	// Must not panic without a stats source.
	event := NewEvent(TopicJobClosed, "", "משרה נסגרה", "", nil, nil)
	if err := broker.Publish(TopicJobClosed, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func TestConsumer_DropsTargetedEventWithoutUser(t *testing.T) {
	broker := newTrackingBroker()
	consumer := NewConsumer(broker, newTestHub(), nil, nil)
	if err := consumer.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer consumer.Stop()

	// A status event with no target user is dropped before any store or
	// hub work, so a nil store must not be touched.
	event := NewEvent(TopicApplicationStatus, "", "עדכון מועמדות", "", nil, nil)
	if err := broker.Publish(TopicApplicationStatus, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func TestConsumer_Stop(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	consumer := NewConsumer(broker, newTestHub(), nil, nil)
	if err := consumer.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	consumer.Stop()
	time.Sleep(10 * time.Millisecond)
}

func TestAllTopics_ContainsExpectedTopics(t *testing.T) {
	expected := map[string]bool{
		TopicJobCreated:         true,
		TopicJobClosed:          true,
		TopicApplicationCreated: true,
		TopicApplicationStatus:  true,
		TopicApplicationNotice:  true,
		TopicPlacementUpdated:   true,
	}

	if len(AllTopics) != len(expected) {
		t.Fatalf("expected %d topics, got %d", len(expected), len(AllTopics))
	}
	for _, topic := range AllTopics {
		if !expected[topic] {
			t.Errorf("unexpected topic %s", topic)
		}
	}
}
