package main

import (
	"context"

	"github.com/avoda-labs/jobboard/backend/internal/applications"
	"github.com/avoda-labs/jobboard/backend/internal/jobs"
	"github.com/avoda-labs/jobboard/backend/internal/notifications"
	"github.com/avoda-labs/jobboard/backend/internal/stats"
)

// snapshotSource composes the domain stores into the data pushed to a socket
// right after it connects.
type snapshotSource struct {
	stats         *stats.Store
	jobs          *jobs.Store
	applications  *applications.Store
	notifications *notifications.NotificationStore
}

func (s *snapshotSource) Stats(ctx context.Context) (interface{}, error) {
	return s.stats.Overview(ctx)
}

func (s *snapshotSource) SuggestedJobs(ctx context.Context, workerID string, limit int) (interface{}, error) {
	return s.jobs.SuggestedForWorker(ctx, workerID, limit)
}

func (s *snapshotSource) WorkerApplications(ctx context.Context, workerID string, limit int) (interface{}, error) {
	return s.applications.ListForWorker(ctx, workerID, limit)
}

func (s *snapshotSource) EmployerStats(ctx context.Context, employerID string) (interface{}, error) {
	return s.stats.EmployerOverview(ctx, employerID)
}

func (s *snapshotSource) RecentApplications(ctx context.Context, employerID string, limit int) (interface{}, error) {
	return s.applications.RecentForEmployer(ctx, employerID, limit)
}

func (s *snapshotSource) UnreadNotifications(ctx context.Context, userID string, limit int) (interface{}, error) {
	return s.notifications.Unread(ctx, userID, limit)
}
