// Package wsclient implements the connection channel used by clients of the
// job board's WebSocket API: it dials the server, survives transient
// disconnects with a capped fixed-delay retry, classifies incoming typed
// messages, and keeps a bounded local notification list. Transport failures
// never propagate as panics or errors to the caller; they surface through
// State and Err.
package wsclient

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avoda-labs/jobboard/backend/internal/ws"
)

const (
	defaultReconnectDelay = 3 * time.Second
	defaultMaxAttempts    = 5
	defaultPingInterval   = 30 * time.Second
	defaultNotifyCap      = 50
)

// Config configures a Channel. An empty URL disables the channel entirely:
// it stays Idle and every operation is a no-op. Pages that opt out of
// real-time features rely on this.
type Config struct {
	URL   string
	Token string

	ReconnectDelay  time.Duration // default 3s
	MaxAttempts     int           // default 5
	PingInterval    time.Duration // default 30s
	NotificationCap int           // default 50

	Dialer *websocket.Dialer
}

// Notification is one entry in the channel's local notification list.
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Read      bool            `json:"read"`
}

// Channel maintains a live connection to the notification endpoint.
// All methods are safe for concurrent use.
type Channel struct {
	cfg    Config
	dialer *websocket.Dialer

	mu            sync.Mutex
	fsm           *fsm
	conn          *websocket.Conn
	lastErr       string
	statsPayload  json.RawMessage
	lists         map[string]json.RawMessage
	notifications []Notification // newest first
	retryTimer    *time.Timer

	wmu sync.Mutex // serializes writes to conn
}

// New creates a Channel. Call Connect to start it.
func New(cfg Config) *Channel {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.NotificationCap <= 0 {
		cfg.NotificationCap = defaultNotifyCap
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Channel{
		cfg:    cfg,
		dialer: dialer,
		fsm:    newFSM(cfg.MaxAttempts),
		lists:  make(map[string]json.RawMessage),
	}
}

// Connect starts the channel. It is a no-op when no URL is configured or the
// channel is already connecting or open.
func (c *Channel) Connect() {
	if c.cfg.URL == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fsm.state == StateConnecting || c.fsm.state == StateOpen {
		return
	}
	c.fsm.dialing()
	go c.dial()
}

// Disconnect closes the socket with a normal-closure code, cancels any
// pending retry and parks the channel in Idle. It never reports an error.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.fsm.idle()
	c.lastErr = ""
	c.mu.Unlock()

	if conn != nil {
		c.wmu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.wmu.Unlock()
		conn.Close()
	}
}

// Reconnect resets the attempt counter and dials again. It is the only way
// out of the Failed state.
func (c *Channel) Reconnect() {
	if c.cfg.URL == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fsm.state == StateConnecting || c.fsm.state == StateOpen {
		return
	}
	c.fsm.reset()
	c.lastErr = ""
	c.fsm.dialing()
	go c.dial()
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.state
}

// Err returns the last error string, empty when healthy. A reached retry
// ceiling leaves a persistent error until Reconnect.
func (c *Channel) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SendMessage sends v as a JSON frame. It reports false, and sends nothing,
// when the channel is not open. It never returns an error to the caller.
func (c *Channel) SendMessage(v interface{}) bool {
	c.mu.Lock()
	if c.fsm.state != StateOpen || c.conn == nil {
		c.mu.Unlock()
		return false
	}
	conn := c.conn
	c.mu.Unlock()

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("wsclient: send failed: %v", err)
		return false
	}
	return true
}

// Stats returns the latest stats payload, nil before the first stats message.
func (c *Channel) Stats() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsPayload
}

// List returns the cached payload for a list-typed message type
// (suggested_jobs, applications, employer_stats, recent_applications,
// notifications), or nil if none was received.
func (c *Channel) List(msgType string) json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists[msgType]
}

// Notifications returns a copy of the local notification list, newest first.
func (c *Channel) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// UnreadCount returns the number of unread local notifications.
func (c *Channel) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, notif := range c.notifications {
		if !notif.Read {
			n++
		}
	}
	return n
}

// MarkNotificationRead marks the notification read locally and tells the
// server on a best-effort basis. Idempotent: marking an already-read entry
// changes nothing.
func (c *Channel) MarkNotificationRead(id string) {
	c.mu.Lock()
	for i := range c.notifications {
		if c.notifications[i].ID == id {
			c.notifications[i].Read = true
			break
		}
	}
	c.mu.Unlock()

	c.SendMessage(map[string]string{
		"type":           ws.TypeMarkNotificationRead,
		"notificationId": id,
	})
}

// ClearNotifications empties the local notification list. Local only.
func (c *Channel) ClearNotifications() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = nil
}

// SubscribeToJobAlerts sends the criteria to the server; subsequent new_job
// pushes on this connection are filtered by them.
func (c *Channel) SubscribeToJobAlerts(criteria ws.JobAlertCriteria) bool {
	return c.SendMessage(map[string]interface{}{
		"type":     ws.TypeSubscribeJobAlerts,
		"criteria": criteria,
	})
}

func (c *Channel) dial() {
	url := c.cfg.URL
	if c.cfg.Token != "" {
		url += "?token=" + c.cfg.Token
	}

	conn, _, err := c.dialer.Dial(url, nil)

	c.mu.Lock()
	if c.fsm.state != StateConnecting {
		// Disconnected while dialing.
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.lastErr = fmt.Sprintf("connection failed: %v", err)
		c.applyDrop(false)
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.fsm.opened()
	c.lastErr = ""
	c.mu.Unlock()

	done := make(chan struct{})
	go c.pingLoop(conn, done)
	go c.readLoop(conn, done)
}

// applyDrop runs an fsm transition for a lost connection and schedules the
// follow-up. Caller holds c.mu.
func (c *Channel) applyDrop(normal bool) {
	switch c.fsm.dropped(normal) {
	case actionRetry:
		attempt := c.fsm.attempts
		c.retryTimer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.fsm.state != StateClosed {
				return // disconnected or reconnected in the meantime
			}
			c.fsm.dialing()
			go c.dial()
		})
		log.Printf("wsclient: connection lost, retry %d/%d in %s", attempt, c.cfg.MaxAttempts, c.cfg.ReconnectDelay)
	case actionFail:
		c.lastErr = fmt.Sprintf("connection failed after %d attempts", c.cfg.MaxAttempts)
		log.Printf("wsclient: %s", c.lastErr)
	}
}

func (c *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn != conn {
				// Stale reader: a manual disconnect or newer dial owns the
				// state now.
				c.mu.Unlock()
				return
			}
			c.conn = nil
			normal := websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			if !normal {
				c.lastErr = fmt.Sprintf("connection lost: %v", err)
			}
			c.applyDrop(normal)
			c.mu.Unlock()
			return
		}
		c.handleMessage(raw)
	}
}

// pingLoop sends an application-level keepalive ping until the connection's
// read loop exits.
func (c *Channel) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.wmu.Lock()
			err := conn.WriteJSON(map[string]string{"type": ws.TypePing})
			c.wmu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Channel) handleMessage(raw []byte) {
	var msg ws.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Malformed frame: drop it, the channel stays open.
		log.Printf("wsclient: dropping malformed message: %v", err)
		return
	}

	switch msg.Type {
	case ws.TypeStats:
		c.mu.Lock()
		c.statsPayload = msg.Data
		c.mu.Unlock()

	case ws.TypeSuggestedJobs, ws.TypeApplications, ws.TypeEmployerStats,
		ws.TypeRecentApplications, ws.TypeNotifications:
		c.mu.Lock()
		c.lists[msg.Type] = msg.Data
		c.mu.Unlock()

	case ws.TypeNewJob, ws.TypeNewApplication, ws.TypeApplicationUpdate,
		ws.TypeApplicationStatusUpdate, ws.TypePlacementUpdate:
		c.addNotification(msg)

	case ws.TypePong:
		// Keepalive acknowledgment.

	default:
		log.Printf("wsclient: dropping message of unknown type %q", msg.Type)
	}
}

func (c *Channel) addNotification(msg ws.Message) {
	n := Notification{
		ID:        notificationID(msg.Data),
		Type:      msg.Type,
		Message:   msg.Text,
		Data:      msg.Data,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append([]Notification{n}, c.notifications...)
	if len(c.notifications) > c.cfg.NotificationCap {
		// Drop the oldest entries.
		c.notifications = c.notifications[:c.cfg.NotificationCap]
	}
}

// notificationID prefers the server-side row id embedded in the payload and
// falls back to the receipt time.
func notificationID(data json.RawMessage) string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && len(probe.ID) > 0 {
		if id := strings.Trim(string(probe.ID), `"`); id != "" && id != "null" {
			return id
		}
	}
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
