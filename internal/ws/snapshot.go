package ws

import (
	"context"
	"log"
	"time"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
)

// SnapshotSource supplies the data pushed to a connection right after it
// opens, so the client does not wait for the next event to populate its UI.
// Implementations query the relational store; each method failure is isolated
// by the Snapshotter.
type SnapshotSource interface {
	Stats(ctx context.Context) (interface{}, error)
	SuggestedJobs(ctx context.Context, workerID string, limit int) (interface{}, error)
	WorkerApplications(ctx context.Context, workerID string, limit int) (interface{}, error)
	EmployerStats(ctx context.Context, employerID string) (interface{}, error)
	RecentApplications(ctx context.Context, employerID string, limit int) (interface{}, error)
	UnreadNotifications(ctx context.Context, userID string, limit int) (interface{}, error)
}

// Snapshot caps, matching what the UI renders on first paint.
const (
	suggestedJobsLimit       = 5
	workerApplicationsLimit  = 10
	recentApplicationsLimit  = 5
	unreadNotificationsLimit = 10
)

// Snapshotter sends the initial state sequence to a new connection:
// stats, then the role-specific lists, then unread notifications. The sends
// for one connection happen in this fixed order; a failed query only skips
// its own message.
type Snapshotter struct {
	source  SnapshotSource
	timeout time.Duration
}

// NewSnapshotter creates a Snapshotter over source. Each query gets its own
// timeout so one slow query cannot stall the rest of the snapshot forever.
func NewSnapshotter(source SnapshotSource) *Snapshotter {
	return &Snapshotter{source: source, timeout: 10 * time.Second}
}

// Publish sends the snapshot sequence to c. It runs queries sequentially to
// preserve on-the-wire order and is intended to be called in a goroutine per
// connection; queries for a connection that has since closed produce sends
// that are silently dropped.
func (s *Snapshotter) Publish(ctx context.Context, c *Client) {
	meta := c.Meta()

	s.push(ctx, c, TypeStats, func(qctx context.Context) (interface{}, error) {
		return s.source.Stats(qctx)
	})

	switch meta.Role {
	case auth.RoleWorker:
		if meta.UserID != "" {
			s.push(ctx, c, TypeSuggestedJobs, func(qctx context.Context) (interface{}, error) {
				return s.source.SuggestedJobs(qctx, meta.UserID, suggestedJobsLimit)
			})
			s.push(ctx, c, TypeApplications, func(qctx context.Context) (interface{}, error) {
				return s.source.WorkerApplications(qctx, meta.UserID, workerApplicationsLimit)
			})
		}
	case auth.RoleEmployer:
		if meta.UserID != "" {
			s.push(ctx, c, TypeEmployerStats, func(qctx context.Context) (interface{}, error) {
				return s.source.EmployerStats(qctx, meta.UserID)
			})
			s.push(ctx, c, TypeRecentApplications, func(qctx context.Context) (interface{}, error) {
				return s.source.RecentApplications(qctx, meta.UserID, recentApplicationsLimit)
			})
		}
	}

	if meta.UserID != "" {
		s.push(ctx, c, TypeNotifications, func(qctx context.Context) (interface{}, error) {
			return s.source.UnreadNotifications(qctx, meta.UserID, unreadNotificationsLimit)
		})
	}
}

func (s *Snapshotter) push(ctx context.Context, c *Client, msgType string, query func(context.Context) (interface{}, error)) {
	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := query(qctx)
	if err != nil {
		log.Printf("ws: snapshot %s for client %s failed: %v", msgType, c.ID, err)
		return
	}

	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("ws: snapshot %s for client %s: %v", msgType, c.ID, err)
		return
	}
	c.EnqueueMessage(msg)
}
