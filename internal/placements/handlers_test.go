package placements

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avoda-labs/jobboard/backend/internal/notifications"
)

func newTestHandlers() *Handlers {
	broker := notifications.NewInMemoryBroker()
	return NewHandlers(NewStore(nil), notifications.NewEventProducer(broker))
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestValidStatus(t *testing.T) {
	for _, status := range []string{StatusActive, StatusCompleted, StatusCancelled} {
		if !ValidStatus(status) {
			t.Errorf("expected %q to be valid", status)
		}
	}
	for _, status := range []string{"", "pending", "ACTIVE"} {
		if ValidStatus(status) {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}

func TestCreatePlacementRejectsBadJSON(t *testing.T) {
	h := newTestHandlers()

	rr := httptest.NewRecorder()
	h.CreatePlacement(rr, jsonRequest("POST", "/api/admin/placements", `{broken`))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rr.Code)
	}
}

func TestCreatePlacementRequiresIDs(t *testing.T) {
	h := newTestHandlers()

	rr := httptest.NewRecorder()
	h.CreatePlacement(rr, jsonRequest("POST", "/api/admin/placements", `{"job_id":"j1"}`))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing worker/employer, got %d", rr.Code)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := newTestHandlers()

	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, jsonRequest("PUT", "/api/admin/placements/p1/status", `{"status":"paused"}`))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rr.Code)
	}
}
