package audit

import (
	"testing"
)

func TestEntityFromPath(t *testing.T) {
	tests := []struct {
		path   string
		entity string
	}{
		{"/api/jobs", "jobs"},
		{"/api/jobs/abc/close", "jobs"},
		{"/api/jobs/abc/applications", "jobs"},
		{"/api/applications/abc/status", "applications"},
		{"/api/admin/placements", "placements"},
		{"/api/admin/users/5", "users"},
		{"/api/notifications/5/read", "notifications"},
		{"/api/auth/login", "auth"},
		{"/api/health", "other"},
	}

	for _, tt := range tests {
		if got := entityFromPath(tt.path); got != tt.entity {
			t.Errorf("entityFromPath(%q) = %q, want %q", tt.path, got, tt.entity)
		}
	}
}

func TestNewStore(t *testing.T) {
	store := NewStore(nil)
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestNewHandlers(t *testing.T) {
	handlers := NewHandlers(NewStore(nil))
	if handlers == nil {
		t.Fatal("expected non-nil handlers")
	}
}
