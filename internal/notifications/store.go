package notifications

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification represents a stored notification for a user. Type mirrors the
// WebSocket message type that carried the event (new_application,
// application_update, application_status_update, placement_update).
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationListParams holds filters and pagination for listing notifications.
type NotificationListParams struct {
	UserID   string
	Type     string
	ReadOnly *bool // nil = all, true = read only, false = unread only
	Limit    int
	Offset   int
}

// NotificationStore provides CRUD operations for the notifications table.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Insert stores a new notification.
func (s *NotificationStore) Insert(ctx context.Context, n *Notification) error {
	if n.Payload == nil {
		n.Payload = json.RawMessage("{}")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, type, title, message, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.UserID, n.Type, n.Title, n.Message, n.Payload,
	)
	return err
}

// List returns notifications matching the given filters with pagination.
func (s *NotificationStore) List(ctx context.Context, params NotificationListParams) ([]Notification, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}

	query := `SELECT id, user_id, type, title, message, payload, read, created_at
	          FROM notifications WHERE user_id = $1`
	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	args := []interface{}{params.UserID}
	argIdx := 2

	if params.Type != "" {
		query += ` AND type = $` + strconv.Itoa(argIdx)
		countQuery += ` AND type = $` + strconv.Itoa(argIdx)
		args = append(args, params.Type)
		argIdx++
	}
	if params.ReadOnly != nil {
		query += ` AND read = $` + strconv.Itoa(argIdx)
		countQuery += ` AND read = $` + strconv.Itoa(argIdx)
		args = append(args, *params.ReadOnly)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx)
	args = append(args, params.Limit)
	argIdx++
	query += ` OFFSET $` + strconv.Itoa(argIdx)
	args = append(args, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}

	if notifications == nil {
		notifications = []Notification{}
	}

	return notifications, total, rows.Err()
}

// Unread returns the newest unread notifications for a user, capped at limit.
// It backs the notifications snapshot pushed right after a socket connects.
func (s *NotificationStore) Unread(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	unread := false
	list, _, err := s.List(ctx, NotificationListParams{
		UserID:   userID,
		ReadOnly: &unread,
		Limit:    limit,
	})
	return list, err
}

// MarkRead marks a single notification as read for the given user.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	return err
}

// MarkAllRead marks all unread notifications as read for the given user.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`,
		userID,
	)
	return err
}

// GetUnreadCount returns the number of unread notifications for a user.
func (s *NotificationStore) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`,
		userID,
	).Scan(&count)
	return count, err
}
