package ws

import (
	"context"
	"fmt"
	"testing"
)

// fakeSource records which snapshot queries ran and can fail selectively.
type fakeSource struct {
	failStats bool
	calls     []string
}

func (f *fakeSource) Stats(ctx context.Context) (interface{}, error) {
	f.calls = append(f.calls, TypeStats)
	if f.failStats {
		return nil, fmt.Errorf("stats query failed")
	}
	return map[string]int{"jobs": 12}, nil
}

func (f *fakeSource) SuggestedJobs(ctx context.Context, workerID string, limit int) (interface{}, error) {
	f.calls = append(f.calls, TypeSuggestedJobs)
	if limit != suggestedJobsLimit {
		return nil, fmt.Errorf("unexpected limit %d", limit)
	}
	return []map[string]string{{"title": "waiter"}}, nil
}

func (f *fakeSource) WorkerApplications(ctx context.Context, workerID string, limit int) (interface{}, error) {
	f.calls = append(f.calls, TypeApplications)
	if limit != workerApplicationsLimit {
		return nil, fmt.Errorf("unexpected limit %d", limit)
	}
	return []map[string]string{{"status": "pending"}}, nil
}

func (f *fakeSource) EmployerStats(ctx context.Context, employerID string) (interface{}, error) {
	f.calls = append(f.calls, TypeEmployerStats)
	return map[string]int{"open_jobs": 2}, nil
}

func (f *fakeSource) RecentApplications(ctx context.Context, employerID string, limit int) (interface{}, error) {
	f.calls = append(f.calls, TypeRecentApplications)
	if limit != recentApplicationsLimit {
		return nil, fmt.Errorf("unexpected limit %d", limit)
	}
	return []map[string]string{}, nil
}

func (f *fakeSource) UnreadNotifications(ctx context.Context, userID string, limit int) (interface{}, error) {
	f.calls = append(f.calls, TypeNotifications)
	if limit != unreadNotificationsLimit {
		return nil, fmt.Errorf("unexpected limit %d", limit)
	}
	return []map[string]string{}, nil
}

func snapshotTypes(t *testing.T, c *Client) []string {
	t.Helper()
	var types []string
	for _, m := range drain(t, c) {
		types = append(types, m.Type)
	}
	return types
}

func TestSnapshotWorkerSequence(t *testing.T) {
	r := NewRegistry()
	src := &fakeSource{}
	c := newTestClient(r, "42", "worker")
	r.Register(c)

	NewSnapshotter(src).Publish(context.Background(), c)

	want := []string{TypeStats, TypeSuggestedJobs, TypeApplications, TypeNotifications}
	got := snapshotTypes(t, c)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSnapshotEmployerSequence(t *testing.T) {
	r := NewRegistry()
	src := &fakeSource{}
	c := newTestClient(r, "77", "employer")
	r.Register(c)

	NewSnapshotter(src).Publish(context.Background(), c)

	want := []string{TypeStats, TypeEmployerStats, TypeRecentApplications, TypeNotifications}
	got := snapshotTypes(t, c)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSnapshotAdminGetsStatsAndNotifications(t *testing.T) {
	r := NewRegistry()
	src := &fakeSource{}
	c := newTestClient(r, "9", "admin")
	r.Register(c)

	NewSnapshotter(src).Publish(context.Background(), c)

	got := snapshotTypes(t, c)
	want := []string{TypeStats, TypeNotifications}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// A failing query skips its own message without blocking the rest.
func TestSnapshotIsolatesQueryFailures(t *testing.T) {
	r := NewRegistry()
	src := &fakeSource{failStats: true}
	c := newTestClient(r, "42", "worker")
	r.Register(c)

	NewSnapshotter(src).Publish(context.Background(), c)

	got := snapshotTypes(t, c)
	want := []string{TypeSuggestedJobs, TypeApplications, TypeNotifications}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if src.calls[0] != TypeStats {
		t.Error("stats query should still have been attempted first")
	}
}
