package notifications

import (
	"testing"
)

func TestNewNotificationStore(t *testing.T) {
	store := NewNotificationStore(nil)
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestNotificationListParamsDefaults(t *testing.T) {
	params := NotificationListParams{}
	if params.ReadOnly != nil {
		t.Error("expected nil ReadOnly filter by default")
	}
	if params.Limit != 0 || params.Offset != 0 {
		t.Errorf("expected zero pagination defaults, got limit=%d offset=%d", params.Limit, params.Offset)
	}
}
