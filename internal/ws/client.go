package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the maximum time to wait for a pong reply from the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is the maximum inbound message size in bytes.
	maxMessageSize = 4096
	// sendBuffer bounds the per-connection outbound queue. A full buffer
	// means a slow consumer; pushes to it are dropped, not queued.
	sendBuffer = 256
)

// Meta is the server-verified identity attached to a connection at handshake
// time. It comes from the validated JWT, never from client-asserted
// parameters.
type Meta struct {
	UserID      string
	Role        string
	ConnectedAt time.Time
}

// InboundHooks are callbacks invoked for client → server control messages.
// Nil hooks are ignored.
type InboundHooks struct {
	// MarkNotificationRead is called when the client asks to mark a stored
	// notification as read. Best-effort; errors are logged only.
	MarkNotificationRead func(ctx context.Context, userID, notificationID string) error
}

// Client represents a single WebSocket connection. Outbound messages flow
// through a bounded send channel consumed by WritePump, so a stalled peer
// never blocks a broadcaster.
type Client struct {
	ID   string
	meta Meta

	conn     *websocket.Conn
	send     chan []byte
	registry *Registry
	hooks    InboundHooks

	alertsMu sync.RWMutex
	alerts   *JobAlertCriteria

	closeOnce sync.Once
}

// NewClient creates a Client for an upgraded connection. The caller must
// Register it and start both pumps.
func NewClient(registry *Registry, conn *websocket.Conn, meta Meta, hooks InboundHooks) *Client {
	return &Client{
		ID:       uuid.New().String(),
		meta:     meta,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		registry: registry,
		hooks:    hooks,
	}
}

// Meta returns the connection metadata used by broadcast predicates.
func (c *Client) Meta() Meta { return c.meta }

// AlertCriteria returns the job-alert criteria set by the client, or nil when
// the connection receives all new jobs.
func (c *Client) AlertCriteria() *JobAlertCriteria {
	c.alertsMu.RLock()
	defer c.alertsMu.RUnlock()
	return c.alerts
}

// Enqueue offers an encoded message to the connection. It never blocks;
// it reports false when the send buffer is full or already closed.
func (c *Client) Enqueue(data []byte) bool {
	defer func() {
		// A send can race closeSend when the client disconnects while a
		// snapshot query is still in flight; the message is simply dropped.
		_ = recover()
	}()
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// EnqueueMessage encodes msg and offers it to the connection.
func (c *Client) EnqueueMessage(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: client %s: marshal %s: %v", c.ID, msg.Type, err)
		return false
	}
	return c.Enqueue(data)
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump consumes frames from the peer and dispatches control messages.
// It runs in its own goroutine per client and unregisters the client on exit,
// covering both normal close and error.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("ws: client %s read error: %v", c.ID, err)
			}
			return
		}

		var cm clientMessage
		if err := json.Unmarshal(raw, &cm); err != nil {
			log.Printf("ws: client %s sent invalid message: %v", c.ID, err)
			continue
		}

		switch cm.Type {
		case TypePing:
			msg, err := NewMessage(TypePong, pongPayload{Timestamp: time.Now().UnixMilli()})
			if err == nil {
				c.EnqueueMessage(msg)
			}

		case TypeSubscribeJobAlerts:
			c.alertsMu.Lock()
			c.alerts = cm.Criteria
			c.alertsMu.Unlock()
			log.Printf("ws: client %s subscribed to job alerts %+v", c.ID, cm.Criteria)

		case TypeMarkNotificationRead:
			if c.hooks.MarkNotificationRead == nil || cm.NotificationID == "" {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.hooks.MarkNotificationRead(ctx, c.meta.UserID, cm.NotificationID); err != nil {
				log.Printf("ws: client %s mark notification read: %v", c.ID, err)
			}
			cancel()

		default:
			log.Printf("ws: client %s unknown message type %q", c.ID, cm.Type)
		}
	}
}

// WritePump drains the send channel to the peer and keeps the transport alive
// with periodic pings. It runs in its own goroutine per client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Registry closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
