package notifications

import (
	"context"
	"log"
	"time"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
	"github.com/avoda-labs/jobboard/backend/internal/ws"
)

// AllTopics lists all event topics that the consumer subscribes to.
var AllTopics = []string{
	TopicJobCreated,
	TopicJobClosed,
	TopicApplicationCreated,
	TopicApplicationStatus,
	TopicApplicationNotice,
	TopicPlacementUpdated,
}

// StatsFn returns the current aggregate counters for the `stats` push. The
// consumer calls it after events that change those counters.
type StatsFn func(ctx context.Context) (interface{}, error)

// Consumer subscribes to all event topics on the broker, persists a
// notification row for the target user, and pushes the event to the matching
// live sockets through the hub.
type Consumer struct {
	broker MessageBroker
	hub    *ws.Hub
	store  *NotificationStore
	stats  StatsFn
	ctx    context.Context
	cancel context.CancelFunc
}

// NewConsumer creates a new Consumer. stats may be nil, in which case no
// stats refresh is pushed after job and placement changes.
func NewConsumer(broker MessageBroker, hub *ws.Hub, store *NotificationStore, stats StatsFn) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		broker: broker,
		hub:    hub,
		store:  store,
		stats:  stats,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to all topics and begins handling events. This method
// returns immediately; event handling runs asynchronously via the broker's
// subscription mechanism.
func (c *Consumer) Start() error {
	for _, topic := range AllTopics {
		t := topic // capture for closure
		_, err := c.broker.Subscribe(t, func(event Event) {
			c.handle(event)
		})
		if err != nil {
			return err
		}
		log.Printf("notifications: consumer subscribed to %s", t)
	}
	return nil
}

// Stop cancels the consumer's context. For KafkaBroker, call broker.Close()
// separately to stop the underlying consumers.
func (c *Consumer) Stop() {
	c.cancel()
}

func (c *Consumer) handle(event Event) {
	switch event.Topic {
	case TopicJobCreated:
		msg, err := ws.NewNotificationMessage(ws.TypeNewJob, event.Payload, event.Body)
		if err != nil {
			log.Printf("notifications: build %s message: %v", event.Topic, err)
			return
		}
		sent := c.hub.BroadcastNewJob(msg, event.Metadata["region"], event.Metadata["category"])
		log.Printf("notifications: %s pushed to %d workers", event.Topic, sent)
		c.pushStats()

	case TopicJobClosed:
		c.pushStats()

	case TopicApplicationCreated:
		c.deliver(event, ws.TypeNewApplication)

	case TopicApplicationStatus:
		c.deliver(event, ws.TypeApplicationUpdate)

	case TopicApplicationNotice:
		c.deliver(event, ws.TypeApplicationStatusUpdate)

	case TopicPlacementUpdated:
		c.deliver(event, ws.TypePlacementUpdate)
		// Admin dashboards track all placements.
		if msg, err := ws.NewNotificationMessage(ws.TypePlacementUpdate, event.Payload, event.Body); err == nil {
			c.hub.Broadcast(msg, ws.MatchRole(auth.RoleAdmin))
		}
		c.pushStats()

	default:
		log.Printf("notifications: ignoring event with unknown topic %q", event.Topic)
	}
}

// deliver persists a notification row for the target user and pushes the
// event to that user's open sockets.
func (c *Consumer) deliver(event Event, msgType string) {
	if event.TargetUser == "" {
		log.Printf("notifications: %s event %s has no target user, dropping", event.Topic, event.ID)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	n := &Notification{
		UserID:  event.TargetUser,
		Type:    msgType,
		Title:   event.Title,
		Message: event.Body,
		Payload: event.Payload,
	}
	if err := c.store.Insert(ctx, n); err != nil {
		log.Printf("notifications: persist %s for user %s: %v", event.Topic, event.TargetUser, err)
		// Still push live; the socket message does not depend on the row.
	}

	msg, err := ws.NewNotificationMessage(msgType, event.Payload, event.Body)
	if err != nil {
		log.Printf("notifications: build %s message: %v", event.Topic, err)
		return
	}
	c.hub.Broadcast(msg, ws.MatchUser(event.TargetUser))
}

// pushStats broadcasts refreshed aggregate counters to every connection.
func (c *Consumer) pushStats() {
	if c.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	overview, err := c.stats(ctx)
	if err != nil {
		log.Printf("notifications: stats refresh: %v", err)
		return
	}
	msg, err := ws.NewMessage(ws.TypeStats, overview)
	if err != nil {
		log.Printf("notifications: build stats message: %v", err)
		return
	}
	c.hub.Broadcast(msg, nil)
}
