package ws

import (
	"encoding/json"
	"fmt"
)

// Server → client message types.
const (
	TypeStats                   = "stats"
	TypeNewJob                  = "new_job"
	TypeNewApplication          = "new_application"
	TypeApplicationUpdate       = "application_update"
	TypeApplicationStatusUpdate = "application_status_update"
	TypePlacementUpdate         = "placement_update"
	TypeSuggestedJobs           = "suggested_jobs"
	TypeApplications            = "applications"
	TypeEmployerStats           = "employer_stats"
	TypeRecentApplications      = "recent_applications"
	TypeNotifications           = "notifications"
	TypePong                    = "pong"
)

// Client → server message types.
const (
	TypePing                 = "ping"
	TypeSubscribeJobAlerts   = "subscribe_job_alerts"
	TypeMarkNotificationRead = "mark_notification_read"
)

// Message is the wire envelope for every server → client push. Data is
// interpreted according to Type; Text carries the optional human-readable
// notification string.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	Text string          `json:"message,omitempty"`
}

// NewMessage builds a Message of the given type with data marshaled as the
// payload.
func NewMessage(msgType string, data interface{}) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Data: raw}, nil
}

// NewNotificationMessage is NewMessage plus the human-readable text used by
// notification-typed pushes.
func NewNotificationMessage(msgType string, data interface{}, text string) (Message, error) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		return Message{}, err
	}
	msg.Text = text
	return msg, nil
}

// clientMessage is the envelope parsed from client → server frames.
type clientMessage struct {
	Type           string            `json:"type"`
	NotificationID string            `json:"notificationId,omitempty"`
	Criteria       *JobAlertCriteria `json:"criteria,omitempty"`
}

// JobAlertCriteria narrows which new_job pushes a worker connection receives.
// Empty fields match everything.
type JobAlertCriteria struct {
	Region   string `json:"region,omitempty"`
	Category string `json:"category,omitempty"`
}

// Matches reports whether a job with the given region and category passes the
// criteria.
func (c *JobAlertCriteria) Matches(region, category string) bool {
	if c == nil {
		return true
	}
	if c.Region != "" && c.Region != region {
		return false
	}
	if c.Category != "" && c.Category != category {
		return false
	}
	return true
}

// pongPayload is the reply to a client ping.
type pongPayload struct {
	Timestamp int64 `json:"timestamp"`
}
