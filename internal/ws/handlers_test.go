package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
)

func newWSServer(t *testing.T, src SnapshotSource) (*httptest.Server, *Registry, *Hub, *auth.JWTService) {
	t.Helper()

	registry := NewRegistry()
	hub := NewHub(registry)
	jwtSvc := auth.NewJWTService("test-secret")

	var snapshotter *Snapshotter
	if src != nil {
		snapshotter = NewSnapshotter(src)
	}
	handler := NewWSHandler(registry, jwtSvc, snapshotter, InboundHooks{})

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(registry.Shutdown)

	return srv, registry, hub, jwtSvc
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func expectNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no message, got %s", raw)
	}
}

func TestServeWSRejectsMissingToken(t *testing.T) {
	srv, _, _, _ := newWSServer(t, nil)

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestServeWSRejectsInvalidToken(t *testing.T) {
	srv, _, _, _ := newWSServer(t, nil)

	resp, err := http.Get(srv.URL + "/ws?token=garbage")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

// A worker connection receives the snapshot in the fixed order: stats,
// suggested jobs, own applications, unread notifications.
func TestWorkerConnectSnapshotOrder(t *testing.T) {
	src := &fakeSource{}
	srv, _, _, jwtSvc := newWSServer(t, src)

	token, err := jwtSvc.GenerateToken("42", "worker@test.com", auth.RoleWorker)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	conn := dialWS(t, srv, token)

	want := []string{TypeStats, TypeSuggestedJobs, TypeApplications, TypeNotifications}
	for i, wantType := range want {
		m := readMessage(t, conn)
		if m.Type != wantType {
			t.Fatalf("message %d: expected %s, got %s", i, wantType, m.Type)
		}
	}
}

// Broadcasts filtered on user id reach only that user's connections.
func TestBroadcastReachesOnlyMatchingUser(t *testing.T) {
	srv, registry, hub, jwtSvc := newWSServer(t, nil)

	tokenA, _ := jwtSvc.GenerateToken("5", "a@test.com", auth.RoleWorker)
	tokenB, _ := jwtSvc.GenerateToken("6", "b@test.com", auth.RoleWorker)

	connA := dialWS(t, srv, tokenA)
	connB := dialWS(t, srv, tokenB)

	// Let both connections finish registering.
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for registrations")
		}
		time.Sleep(10 * time.Millisecond)
	}

	msg, err := NewNotificationMessage(TypeApplicationStatusUpdate,
		map[string]interface{}{"applicationId": 7, "status": "accepted", "jobTitle": "cook"},
		"סטטוס המועמדות שלך עודכן")
	if err != nil {
		t.Fatalf("NewNotificationMessage: %v", err)
	}
	if sent := hub.Broadcast(msg, MatchUser("5")); sent != 1 {
		t.Fatalf("expected 1 delivery, got %d", sent)
	}

	got := readMessage(t, connA)
	if got.Type != TypeApplicationStatusUpdate {
		t.Errorf("expected application_status_update, got %s", got.Type)
	}
	if got.Text == "" {
		t.Error("expected a human-readable notification message")
	}
	expectNoMessage(t, connB)
}

// A ping is answered with a pong on the same connection only.
func TestPingPongStaysOnConnection(t *testing.T) {
	srv, registry, _, jwtSvc := newWSServer(t, nil)

	tokenA, _ := jwtSvc.GenerateToken("1", "a@test.com", auth.RoleWorker)
	tokenB, _ := jwtSvc.GenerateToken("2", "b@test.com", auth.RoleWorker)

	connA := dialWS(t, srv, tokenA)
	connB := dialWS(t, srv, tokenB)

	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for registrations")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := connA.WriteJSON(map[string]string{"type": TypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	pong := readMessage(t, connA)
	if pong.Type != TypePong {
		t.Fatalf("expected pong, got %s", pong.Type)
	}
	var payload pongPayload
	if err := json.Unmarshal(pong.Data, &payload); err != nil {
		t.Fatalf("unmarshal pong payload: %v", err)
	}
	if payload.Timestamp == 0 {
		t.Error("expected non-zero pong timestamp")
	}

	expectNoMessage(t, connB)
}

// Closing the socket removes the connection from the registry.
func TestCloseUnregisters(t *testing.T) {
	srv, registry, _, jwtSvc := newWSServer(t, nil)

	token, _ := jwtSvc.GenerateToken("1", "a@test.com", auth.RoleWorker)
	conn := dialWS(t, srv, token)

	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for registration")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for registry.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for unregistration")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
