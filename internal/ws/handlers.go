package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     CheckOrigin,
}

// WSHandler upgrades HTTP connections to WebSocket, attaches the verified
// identity from the JWT, and spawns the read/write pumps plus the snapshot
// publisher for the new client.
type WSHandler struct {
	registry    *Registry
	jwtService  *auth.JWTService
	snapshotter *Snapshotter
	hooks       InboundHooks
}

func NewWSHandler(registry *Registry, jwtService *auth.JWTService, snapshotter *Snapshotter, hooks InboundHooks) *WSHandler {
	return &WSHandler{
		registry:    registry,
		jwtService:  jwtService,
		snapshotter: snapshotter,
		hooks:       hooks,
	}
}

// RegisterRoutes wires the WebSocket endpoint.
func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.ServeWS).Methods(http.MethodGet)
}

// ServeWS upgrades an HTTP GET /ws request to a WebSocket connection.
// Identity is taken from the JWT read from:
//  1. The `token` query parameter, or
//  2. The `Authorization: Bearer <token>` header.
//
// The connection never trusts client-asserted user ids or roles.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}

	if token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already wrote the error response.
		return
	}

	meta := Meta{
		UserID:      claims.UserID,
		Role:        claims.Role,
		ConnectedAt: time.Now(),
	}
	client := NewClient(h.registry, conn, meta, h.hooks)
	h.registry.Register(client)

	go client.WritePump()
	go client.ReadPump()

	if h.snapshotter != nil {
		go h.snapshotter.Publish(context.Background(), client)
	}
}
