package applications

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
	"github.com/avoda-labs/jobboard/backend/internal/jobs"
	"github.com/avoda-labs/jobboard/backend/internal/notifications"
)

func newTestHandlers() *Handlers {
	broker := notifications.NewInMemoryBroker()
	producer := notifications.NewEventProducer(broker)
	return NewHandlers(NewStore(nil), jobs.NewStore(nil), nil, producer)
}

func requestWithClaims(method, path, body, userID, role string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		claims := &auth.Claims{UserID: userID, Role: role}
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
	}
	return req
}

func TestValidStatus(t *testing.T) {
	for _, status := range []string{StatusPending, StatusReviewed, StatusAccepted, StatusRejected} {
		if !ValidStatus(status) {
			t.Errorf("expected %q to be valid", status)
		}
	}
	for _, status := range []string{"", "open", "ACCEPTED", "done"} {
		if ValidStatus(status) {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}

func TestApplyRejectsEmployers(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("POST", "/api/jobs/j1/apply", "", "emp-1", auth.RoleEmployer)
	rr := httptest.NewRecorder()
	h.Apply(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for employer applying, got %d", rr.Code)
	}
}

func TestApplyRequiresClaims(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("POST", "/api/jobs/j1/apply", "", "", "")
	rr := httptest.NewRecorder()
	h.Apply(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 without claims, got %d", rr.Code)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("PUT", "/api/applications/a1/status", `{"status":"banana"}`, "emp-1", auth.RoleEmployer)
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rr.Code)
	}
}

func TestUpdateStatusRejectsBadJSON(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("PUT", "/api/applications/a1/status", `{oops`, "emp-1", auth.RoleEmployer)
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rr.Code)
	}
}

func TestNotifyApplicantRequiresMessage(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("POST", "/api/admin/applications/a1/notify", `{"message":"   "}`, "admin-1", auth.RoleAdmin)
	rr := httptest.NewRecorder()
	h.NotifyApplicant(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank message, got %d", rr.Code)
	}
}

func TestListMineRejectsEmployers(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("GET", "/api/applications/mine", "", "emp-1", auth.RoleEmployer)
	rr := httptest.NewRecorder()
	h.ListMine(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for employer, got %d", rr.Code)
	}
}

func TestDownloadCVRequiresClaims(t *testing.T) {
	h := newTestHandlers()

	req := requestWithClaims("GET", "/api/applications/a1/cv", "", "", "")
	rr := httptest.NewRecorder()
	h.DownloadCV(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without claims, got %d", rr.Code)
	}
}
