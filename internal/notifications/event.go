package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic constants for job-board events.
const (
	TopicJobCreated         = "job.created"
	TopicJobClosed          = "job.closed"
	TopicApplicationCreated = "application.created"
	TopicApplicationStatus  = "application.status"
	TopicApplicationNotice  = "application.notice"
	TopicPlacementUpdated   = "placement.updated"
)

// Event represents a domain event published through the broker. TargetUser
// is the user the event concerns; an empty TargetUser means the event is a
// broadcast (new jobs go to matching workers, placement updates to admins).
type Event struct {
	ID         string            `json:"id"`
	Topic      string            `json:"topic"`
	TargetUser string            `json:"target_user,omitempty"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewEvent creates a new Event with a generated UUID and the current timestamp.
func NewEvent(topic, targetUser, title, body string, payload json.RawMessage, metadata map[string]string) Event {
	return Event{
		ID:         uuid.New().String(),
		Topic:      topic,
		TargetUser: targetUser,
		Title:      title,
		Body:       body,
		Payload:    payload,
		Metadata:   metadata,
		Timestamp:  time.Now().UTC(),
	}
}

// EventHandler is a callback invoked when a subscribed event is received.
type EventHandler func(event Event)
